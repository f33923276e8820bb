package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/mistakebook/mistakebook/internal/apperrors"
	portsrepo "github.com/mistakebook/mistakebook/internal/core/ports/repositories"
	portssvc "github.com/mistakebook/mistakebook/internal/core/ports/services"
	"github.com/mistakebook/mistakebook/internal/dto"
	"github.com/mistakebook/mistakebook/internal/models"
	"github.com/mistakebook/mistakebook/internal/richtext"
)

// notesImageFieldKey is the relational field key of the single legacy
// notes image; materials use "material_{idx}".
const notesImageFieldKey = "notesImage"

func materialFieldKey(idx int) string {
	return fmt.Sprintf("material_%d", idx)
}

type questionService struct {
	questions portsrepo.QuestionRepository
	threshold int
	logger    *slog.Logger
}

// NewQuestionService builds the server-side question service. It mirrors
// the local backend's externalization of materials and the notes image at
// the same threshold, keeping the stored document shape identical on both
// sides. Rich-text fields stay inline in the document here.
func NewQuestionService(questions portsrepo.QuestionRepository, logger *slog.Logger) portssvc.QuestionSvc {
	return &questionService{
		questions: questions,
		threshold: richtext.DefaultThreshold,
		logger:    logger,
	}
}

func (s *questionService) ListQuestions(ctx context.Context, userID string) ([]models.Question, error) {
	return s.questions.FindQuestionsByUser(ctx, userID)
}

// GetQuestionImages assembles the positional materials array and the notes
// image from the question's image rows. Gaps in the index sequence come
// back as empty strings so positions line up with the document's slots.
func (s *questionService) GetQuestionImages(ctx context.Context, userID, questionID string) (*dto.QuestionImagesResponse, error) {
	rows, err := s.questions.FindQuestionImages(ctx, questionID)
	if err != nil {
		return nil, err
	}
	resp := &dto.QuestionImagesResponse{Materials: []string{}}
	byIndex := make(map[int]string)
	maxIdx := -1
	for _, row := range rows {
		if row.FieldKey == notesImageFieldKey {
			resp.NotesImage = row.Data
			continue
		}
		if idx, ok := parseMaterialIndex(row.FieldKey); ok {
			byIndex[idx] = row.Data
			if idx > maxIdx {
				maxIdx = idx
			}
		}
	}
	for i := 0; i <= maxIdx; i++ {
		resp.Materials = append(resp.Materials, byIndex[i])
	}
	return resp, nil
}

func parseMaterialIndex(fieldKey string) (int, bool) {
	rest, ok := strings.CutPrefix(fieldKey, "material_")
	if !ok {
		return 0, false
	}
	idx, err := strconv.Atoi(rest)
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

// SaveQuestion externalizes oversized inline payloads into image rows and
// upserts the light document. Slots that arrive already deferred keep
// their existing rows, so re-posting a light document never loses images.
func (s *questionService) SaveQuestion(ctx context.Context, userID string, q models.Question) error {
	if q.ID == "" {
		return fmt.Errorf("%w: question id is required", apperrors.ErrValidation)
	}
	if q.Category != "" && !models.ValidCategory(q.Category) {
		return fmt.Errorf("%w: unknown category %q", apperrors.ErrValidation, q.Category)
	}
	// Sub-categories outside the table are dropped rather than rejected:
	// AI-classified saves sometimes improvise one.
	if !models.ValidSubCategory(q.Category, q.SubCategory) {
		s.logger.WarnContext(ctx, "dropping unknown sub-category",
			slog.String("question_id", q.ID), slog.String("sub_category", q.SubCategory))
		q.SubCategory = ""
	}
	if q.CreatedAt == 0 {
		q.CreatedAt = time.Now().UnixMilli()
	}

	var existing []portsrepo.QuestionImage
	if q.HasDeferredImages() {
		rows, err := s.questions.FindQuestionImages(ctx, q.ID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		existing = rows
	}
	existingByKey := make(map[string]string, len(existing))
	for _, row := range existing {
		existingByKey[row.FieldKey] = row.Data
	}

	var images []portsrepo.QuestionImage

	materials := make([]models.MaterialSlot, len(q.Materials))
	copy(materials, q.Materials)
	for i, slot := range materials {
		key := materialFieldKey(i)
		switch {
		case slot.Deferred:
			if data, ok := existingByKey[key]; ok {
				images = append(images, portsrepo.QuestionImage{FieldKey: key, Data: data})
			}
		case len(slot.Data) >= s.threshold:
			images = append(images, portsrepo.QuestionImage{FieldKey: key, Data: slot.Data})
			materials[i] = models.Deferred()
		}
	}
	q.Materials = materials

	switch {
	case q.NotesImage.Deferred:
		if data, ok := existingByKey[notesImageFieldKey]; ok {
			images = append(images, portsrepo.QuestionImage{FieldKey: notesImageFieldKey, Data: data})
		}
	case len(q.NotesImage.Data) >= s.threshold:
		images = append(images, portsrepo.QuestionImage{FieldKey: notesImageFieldKey, Data: q.NotesImage.Data})
		q.NotesImage = models.Deferred()
	}

	return s.questions.UpsertQuestion(ctx, userID, q, images)
}

// DeleteQuestion with hard=false stamps deletedAt on the document; image
// rows stay until a hard delete. Soft-deleting a missing question is a
// silent no-op.
func (s *questionService) DeleteQuestion(ctx context.Context, userID, questionID string, hard bool) error {
	if hard {
		return s.questions.DeleteQuestionHard(ctx, userID, questionID)
	}
	q, err := s.questions.FindQuestionByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}
	ts := time.Now().UnixMilli()
	q.DeletedAt = &ts
	return s.questions.SaveQuestionDoc(ctx, *q)
}
