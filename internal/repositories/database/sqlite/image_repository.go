package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// imageRepository is the binary payload store backed by the images table.
type imageRepository struct {
	db *sql.DB
}

func newImageRepository(db *sql.DB) *imageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) Put(ctx context.Context, key, data string) error {
	query := `INSERT INTO images (key, data) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data`
	if _, err := r.db.ExecContext(ctx, query, key, data); err != nil {
		return fmt.Errorf("failed to store image %s: %w", key, err)
	}
	return nil
}

func (r *imageRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM images WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read image %s: %w", key, err)
	}
	return data, true, nil
}

func (r *imageRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete image %s: %w", key, err)
	}
	return nil
}

func (r *imageRepository) DeleteMany(ctx context.Context, keys []string) error {
	// Best effort: a missing key is not a failure, and one bad key does
	// not stop the batch.
	var firstErr error
	for _, key := range keys {
		if err := r.Delete(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// likeEscaper protects LIKE metacharacters; derived keys are full of
// underscores.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *imageRepository) KeysWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	pattern := likeEscaper.Replace(prefix) + "%"
	rows, err := r.db.QueryContext(ctx, `SELECT key FROM images WHERE key LIKE ? ESCAPE '\'`, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to scan image keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan image key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating image keys: %w", err)
	}
	return keys, nil
}
