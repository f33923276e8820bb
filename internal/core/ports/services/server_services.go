package services

import (
	"context"
	"encoding/json"

	"github.com/mistakebook/mistakebook/internal/dto"
	"github.com/mistakebook/mistakebook/internal/models"
)

// UserSvc covers the server-side account operations behind /api/auth and
// /api/user.
type UserSvc interface {
	// Register creates a user; apperrors.ErrDuplicate on a taken
	// username.
	Register(ctx context.Context, req dto.RegisterRequest) (*models.User, error)

	// Login returns the user or apperrors.ErrUnauthorized.
	Login(ctx context.Context, username, password string) (*models.User, error)

	// UpdateUser applies a profile update and returns the (possibly
	// freshly minted) external token.
	UpdateUser(ctx context.Context, userID string, req dto.UpdateUserRequest) (string, error)
}

// QuestionSvc covers /api/questions.
type QuestionSvc interface {
	ListQuestions(ctx context.Context, userID string) ([]models.Question, error)

	// GetQuestionImages resolves the externalized payloads of one
	// question into positional materials plus the notes image.
	GetQuestionImages(ctx context.Context, userID, questionID string) (*dto.QuestionImagesResponse, error)

	// SaveQuestion externalizes oversized materials and the notes image
	// server-side, then upserts by id.
	SaveQuestion(ctx context.Context, userID string, q models.Question) error

	DeleteQuestion(ctx context.Context, userID, questionID string, hard bool) error
}

// SessionSvc covers /api/sessions.
type SessionSvc interface {
	ListSessions(ctx context.Context, userID string) ([]models.PracticeSession, error)

	// SaveSession stores the session and updates per-question counters
	// unless the session id was already present.
	SaveSession(ctx context.Context, userID string, s models.PracticeSession) error

	DeleteSession(ctx context.Context, userID, sessionID string) error
}

// ExternalSvc covers the browser-extension path under /api/external.
type ExternalSvc interface {
	// ResolveToken maps an X-External-Token value to its user, or
	// apperrors.ErrUnauthorized.
	ResolveToken(ctx context.Context, token string) (*models.User, error)

	// Analyze proxies a question screenshot to the AI collaborator and
	// returns its structured verdict as-is.
	Analyze(ctx context.Context, req dto.ExternalAnalyzeRequest) (json.RawMessage, error)

	// Chat proxies a free-form follow-up about a question.
	Chat(ctx context.Context, req dto.ExternalChatRequest) (string, error)

	// SaveQuestion upserts a scraped question, forcing ownership to the
	// token's resolved user.
	SaveQuestion(ctx context.Context, userID string, q models.Question) error
}

// ServiceContainer holds every server-side service, the single entry point
// for handlers.
type ServiceContainer struct {
	User     UserSvc
	Question QuestionSvc
	Session  SessionSvc
	External ExternalSvc
}
