package services

import (
	"context"

	"github.com/mistakebook/mistakebook/internal/dto"
	"github.com/mistakebook/mistakebook/internal/models"
)

// Backend is the persistence contract implemented interchangeably by the
// local (embedded sqlite) and remote (REST) adapters. The facade selects
// one at startup based on deployment mode.
//
// This layer never retries and never serializes concurrent saves for the
// same id; callers own recovery.
type Backend interface {
	// Register creates an account. Duplicate usernames return
	// apperrors.ErrDuplicate.
	Register(ctx context.Context, username, password, nickname string) (*models.User, error)

	// Login returns the user or apperrors.ErrUnauthorized.
	Login(ctx context.Context, username, password string) (*models.User, error)

	// UpdateUser saves profile changes and returns the stored user,
	// external token included. An empty request password keeps the
	// current one.
	UpdateUser(ctx context.Context, userID string, req dto.UpdateUserRequest) (*models.User, error)

	// GetQuestions lists the owner's questions newest first, excluding
	// soft-deleted ones.
	GetQuestions(ctx context.Context, userID string) ([]models.Question, error)

	// GetQuestion fetches one question by id, soft-deleted included.
	GetQuestion(ctx context.Context, userID, questionID string) (*models.Question, error)

	// SaveQuestion externalizes oversized payloads and upserts the light
	// document.
	SaveQuestion(ctx context.Context, userID string, q models.Question) error

	// DeleteQuestion soft-deletes by default; hard removes the document
	// and every payload it owns.
	DeleteQuestion(ctx context.Context, userID, questionID string, hard bool) error

	// RestoreQuestion clears a soft delete. Missing questions are a
	// silent no-op.
	RestoreQuestion(ctx context.Context, userID, questionID string) error

	// HydrateQuestionImages resolves deferred image slots and rich-text
	// reference tokens, returning a new document. The persisted record
	// is never mutated.
	HydrateQuestionImages(ctx context.Context, userID string, q models.Question) (models.Question, error)

	// GetSessions lists the owner's practice sessions newest first.
	GetSessions(ctx context.Context, userID string) ([]models.PracticeSession, error)

	// SaveSession persists the session and, unless skipStatsUpdate is
	// set or the session id was already stored, bumps per-question
	// counters best-effort.
	SaveSession(ctx context.Context, userID string, s models.PracticeSession, skipStatsUpdate bool) error

	DeleteSession(ctx context.Context, userID, sessionID string) error
}
