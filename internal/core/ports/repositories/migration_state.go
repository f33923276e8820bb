package repositories

import "context"

// MigrationStateRepository records completed one-time data migrations in
// the store itself, so completion survives process restarts.
type MigrationStateRepository interface {
	Completed(ctx context.Context, key string) (bool, error)
	MarkCompleted(ctx context.Context, key string) error
}
