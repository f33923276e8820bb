package repositories

import (
	"context"

	"github.com/mistakebook/mistakebook/internal/models"
)

// QuestionImage is one externalized payload row of the server-side
// relational schema, keyed per question by field ("material_{idx}" or
// "notesImage").
type QuestionImage struct {
	FieldKey string
	Data     string
}

// UserRepository is the server-side user table.
type UserRepository interface {
	// SaveUser inserts a new user. A username conflict returns
	// apperrors.ErrDuplicate.
	SaveUser(ctx context.Context, user models.User) error

	FindUserByID(ctx context.Context, userID string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)

	// FindUserByExternalToken resolves the browser-extension credential
	// to its user row.
	FindUserByExternalToken(ctx context.Context, token string) (*models.User, error)

	// UpdateUser rewrites nickname, password hash, avatar and external
	// token for an existing user.
	UpdateUser(ctx context.Context, user models.User) error
}

// QuestionRepository is the server-side question storage: a light JSON
// document per question plus externalized image rows.
type QuestionRepository interface {
	// UpsertQuestion replaces the question document and all of its image
	// rows in one pass.
	UpsertQuestion(ctx context.Context, userID string, q models.Question, images []QuestionImage) error

	// FindQuestionsByUser lists documents newest first, soft-deleted
	// included.
	FindQuestionsByUser(ctx context.Context, userID string) ([]models.Question, error)

	FindQuestionByID(ctx context.Context, questionID string) (*models.Question, error)

	// SaveQuestionDoc rewrites only the JSON document (soft delete,
	// counter updates).
	SaveQuestionDoc(ctx context.Context, q models.Question) error

	FindQuestionImages(ctx context.Context, questionID string) ([]QuestionImage, error)

	// DeleteQuestionHard removes the question row and its image rows.
	DeleteQuestionHard(ctx context.Context, userID, questionID string) error
}

// SessionRepository is the server-side practice session storage.
type SessionRepository interface {
	// InsertSession stores the session document. The first return is
	// false when a session with the same id already existed, in which
	// case the document is left untouched.
	InsertSession(ctx context.Context, userID string, s models.PracticeSession) (bool, error)

	FindSessionsByUser(ctx context.Context, userID string) ([]models.PracticeSession, error)

	DeleteSession(ctx context.Context, userID, sessionID string) error
}
