package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mistakebook/mistakebook/internal/apperrors"
)

// docStore is the generic document store over one table of shape
// (id TEXT PRIMARY KEY, user_id TEXT, doc TEXT). One typed instance exists
// per collection, so a question store can never receive a session.
type docStore[T any] struct {
	db    *sql.DB
	table string
}

func newDocStore[T any](db *sql.DB, table string) *docStore[T] {
	return &docStore[T]{db: db, table: table}
}

func (s *docStore[T]) Put(ctx context.Context, id, ownerID string, doc T) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s document: %w", s.table, err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, user_id, doc) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id, doc = excluded.doc`, s.table)
	if _, err := s.db.ExecContext(ctx, query, id, ownerID, raw); err != nil {
		return fmt.Errorf("failed to upsert %s document %s: %w", s.table, id, err)
	}
	return nil
}

func (s *docStore[T]) Get(ctx context.Context, id string) (*T, error) {
	query := fmt.Sprintf(`SELECT doc FROM %s WHERE id = ?`, s.table)
	var raw []byte
	err := s.db.QueryRowContext(ctx, query, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s document %s: %w", s.table, id, err)
	}
	var doc T
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s document %s: %w", s.table, id, err)
	}
	return &doc, nil
}

func (s *docStore[T]) GetAll(ctx context.Context, ownerID string) ([]T, error) {
	query := fmt.Sprintf(`SELECT doc FROM %s`, s.table)
	args := []any{}
	if ownerID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, ownerID)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s documents: %w", s.table, err)
	}
	defer rows.Close()

	var docs []T
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", s.table, err)
		}
		var doc T
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s document: %w", s.table, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", s.table, err)
	}
	return docs, nil
}

func (s *docStore[T]) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, s.table)
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete %s document %s: %w", s.table, id, err)
	}
	return nil
}
