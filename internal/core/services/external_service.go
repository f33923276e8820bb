package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mistakebook/mistakebook/internal/apperrors"
	"github.com/mistakebook/mistakebook/internal/clients/ark"
	portsrepo "github.com/mistakebook/mistakebook/internal/core/ports/repositories"
	portssvc "github.com/mistakebook/mistakebook/internal/core/ports/services"
	"github.com/mistakebook/mistakebook/internal/dto"
	"github.com/mistakebook/mistakebook/internal/models"
)

// maxAnalyzeImages caps how many captured material images ride along on
// one analyze call.
const maxAnalyzeImages = 3

var optionLabels = []string{"A", "B", "C", "D"}

type externalService struct {
	users     portsrepo.UserRepository
	questions portssvc.QuestionSvc
	ai        *ark.Client
	logger    *slog.Logger
}

// NewExternalService builds the browser-extension service: token
// resolution, AI proxying and scraped-question saves.
func NewExternalService(users portsrepo.UserRepository, questions portssvc.QuestionSvc, ai *ark.Client, logger *slog.Logger) portssvc.ExternalSvc {
	return &externalService{users: users, questions: questions, ai: ai, logger: logger}
}

func (s *externalService) ResolveToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperrors.ErrUnauthorized
	}
	user, err := s.users.FindUserByExternalToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to resolve external token: %w", err)
	}
	return user, nil
}

// categoryTree renders the category table for prompts, e.g.
// "判断推理: 图形推理, 定义判断; ...".
func categoryTree() string {
	parts := make([]string, 0, len(models.Categories))
	for _, c := range models.Categories {
		parts = append(parts, fmt.Sprintf("%s: %s", c, strings.Join(models.SubCategories[c], ", ")))
	}
	return strings.Join(parts, "; ")
}

// answerStatus describes how the user did, steering the analysis toward
// error diagnosis or technique summary.
func answerStatus(req dto.ExternalAnalyzeRequest) string {
	if req.UserAnswer == nil || *req.UserAnswer < 0 || *req.UserAnswer >= len(optionLabels) {
		return "请给出完整的解析。"
	}
	if req.CorrectAnswer != nil && *req.UserAnswer == *req.CorrectAnswer {
		return "用户做对了这道题。"
	}
	return fmt.Sprintf("用户错选了：%s。请分析为什么用户会选这个选项（错误原因）。", optionLabels[*req.UserAnswer])
}

// imageDataURL normalizes a captured material into something the AI
// endpoint accepts: http URLs and data URIs pass through, bare base64 is
// wrapped.
func imageDataURL(material string) string {
	if strings.HasPrefix(material, "http") || strings.HasPrefix(material, "data:") {
		return material
	}
	return "data:image/jpeg;base64," + material
}

// Analyze asks the AI collaborator for a categorized analysis of a
// captured question and returns its JSON verdict untouched.
func (s *externalService) Analyze(ctx context.Context, req dto.ExternalAnalyzeRequest) (json.RawMessage, error) {
	status := answerStatus(req)
	correctFocus := "用户做错了，请详细解释错误选项的陷阱在哪里，以及如何避免。"
	if strings.Contains(status, "做对") {
		correctFocus = "用户做对了，重点总结该题型的秒杀技巧或核心公式，不需要纠错。"
	}
	materialLine := ""
	if req.MaterialText != "" {
		materialLine = "材料文本: " + req.MaterialText + "\n"
	}

	prompt := fmt.Sprintf(`你是一位经验丰富、说话通俗易懂的公考行测 AI 助手。

题目信息:
题干: %s
选项: %s
%s%s

请严格返回 JSON 格式:
{
  "category": "必须选自 [常识判断, 判断推理, 言语理解, 数量关系, 资料分析]",
  "subCategory": "子类，参考: %s",
  "miniAnalysis": "解析内容。请用HTML格式（使用 <p>, <b>, <span> 颜色等标签美化）。要求：1. 风格通俗易懂，详略得当，不要堆砌术语。2. 重点分析为什么正确选项是对的，思路是什么。3. %s 4. 对于明显凑数的错误选项，一笔带过即可。"
}`,
		req.Stem, strings.Join(req.Options, " | "), materialLine, status, categoryTree(), correctFocus)

	content := []ark.ContentPart{ark.TextPart(prompt)}
	materials := req.Materials
	if len(materials) > maxAnalyzeImages {
		materials = materials[:maxAnalyzeImages]
	}
	for _, m := range materials {
		content = append(content, ark.ImagePart(imageDataURL(m)))
	}

	reply, err := s.ai.Complete(ctx, ark.Request{
		Messages:       []ark.Message{{Role: "user", Content: content}},
		ResponseFormat: ark.JSONObject(),
		Temperature:    0.3,
		Thinking:       ark.ThinkingDisabled(),
	})
	if err != nil {
		return nil, err
	}
	if !json.Valid([]byte(reply)) {
		s.logger.WarnContext(ctx, "analyze reply is not valid json")
		return nil, fmt.Errorf("failed to parse AI response")
	}
	return json.RawMessage(reply), nil
}

// Chat proxies a free-form follow-up, replaying the prior thread.
func (s *externalService) Chat(ctx context.Context, req dto.ExternalChatRequest) (string, error) {
	systemPrompt := fmt.Sprintf(`你是一位公考行测 AI 助手。正在辅导学生做这道题：
题干：%s
选项：%s

请解答用户的疑问。回答要简练、直接、切中要害。
可以使用Markdown语法，例如用 **粗体** 强调重点。`,
		req.Stem, strings.Join(req.Options, " | "))

	messages := make([]ark.Message, 0, len(req.History)+2)
	messages = append(messages, ark.Message{Role: "system", Content: systemPrompt})
	for _, turn := range req.History {
		messages = append(messages, ark.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, ark.Message{Role: "user", Content: req.NewMessage})

	return s.ai.Complete(ctx, ark.Request{
		Messages:    messages,
		Temperature: 0.5,
		Thinking:    ark.ThinkingDisabled(),
	})
}

// SaveQuestion stores a scraped question under the token's resolved user,
// through the same externalizing save as the standard question POST.
func (s *externalService) SaveQuestion(ctx context.Context, userID string, q models.Question) error {
	return s.questions.SaveQuestion(ctx, userID, q)
}
