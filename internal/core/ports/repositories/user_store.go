package repositories

import (
	"context"

	"github.com/mistakebook/mistakebook/internal/models"
)

// UserStore is the local user collection. Beyond the generic document
// contract it supports lookup by the unique username.
type UserStore interface {
	DocumentStore[models.User]

	// GetByUsername returns the user or apperrors.ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}
