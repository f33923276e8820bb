package repositories

import "context"

// ImageRepository is the binary payload store: a key to blob table holding
// encoded images addressed by keys derived from the owning document.
// No transactional guarantees across puts; callers accept partial-failure
// risk.
type ImageRepository interface {
	// Put is an unconditional upsert with overwrite semantics.
	Put(ctx context.Context, key, data string) error

	// Get returns the payload; the second return is false when the key
	// is absent.
	Get(ctx context.Context, key string) (string, bool, error)

	// Delete removes one key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// DeleteMany removes keys best-effort: missing keys do not fail the
	// batch.
	DeleteMany(ctx context.Context, keys []string) error

	// KeysWithPrefix enumerates every stored key starting with prefix.
	KeysWithPrefix(ctx context.Context, prefix string) ([]string, error)
}
