package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// migrationStateRepository persists one-time data migration completion in
// the store itself, so a restart neither re-runs nor re-checks a finished
// migration.
type migrationStateRepository struct {
	db *sql.DB
}

func newMigrationStateRepository(db *sql.DB) *migrationStateRepository {
	return &migrationStateRepository{db: db}
}

func (r *migrationStateRepository) Completed(ctx context.Context, key string) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT completed_at FROM migration_state WHERE key = ?`, key).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read migration state %s: %w", key, err)
	}
	return true, nil
}

func (r *migrationStateRepository) MarkCompleted(ctx context.Context, key string) error {
	query := `INSERT INTO migration_state (key, completed_at) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET completed_at = excluded.completed_at`
	if _, err := r.db.ExecContext(ctx, query, key, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("failed to record migration state %s: %w", key, err)
	}
	return nil
}
