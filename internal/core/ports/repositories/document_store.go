package repositories

import "context"

// DocumentStore is a typed get/getAll/put/delete contract over one
// collection of documents keyed by entity id. Listings are unordered at
// this layer; callers sort. There is no foreign-key enforcement and no
// cascade: deleting an owner does not touch owned documents.
type DocumentStore[T any] interface {
	// Put upserts the document under id, stamped with its owner.
	Put(ctx context.Context, id, ownerID string, doc T) error

	// Get returns the document or apperrors.ErrNotFound.
	Get(ctx context.Context, id string) (*T, error)

	// GetAll returns every document, optionally filtered by owner
	// (empty ownerID means no filter).
	GetAll(ctx context.Context, ownerID string) ([]T, error)

	// Delete removes the document. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
}
