package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mistakebook/mistakebook/internal/apperrors"
	"github.com/mistakebook/mistakebook/internal/models"
)

// userStore keeps user documents with a dedicated unique username column
// for lookup. Users have no owner; the ownerID argument of Put is ignored.
type userStore struct {
	db *sql.DB
}

func newUserStore(db *sql.DB) *userStore {
	return &userStore{db: db}
}

func (s *userStore) Put(ctx context.Context, id, _ string, u models.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to encode user document: %w", err)
	}
	query := `INSERT INTO users (id, username, doc) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET username = excluded.username, doc = excluded.doc`
	if _, err := s.db.ExecContext(ctx, query, id, u.Username, raw); err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", id, err)
	}
	return nil
}

func (s *userStore) Get(ctx context.Context, id string) (*models.User, error) {
	return s.scanOne(ctx, `SELECT doc FROM users WHERE id = ?`, id)
}

func (s *userStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.scanOne(ctx, `SELECT doc FROM users WHERE username = ?`, username)
}

func (s *userStore) GetAll(ctx context.Context, _ string) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc FROM users`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		var u models.User
		if err := json.Unmarshal(raw, &u); err != nil {
			return nil, fmt.Errorf("failed to decode user document: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

func (s *userStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete user %s: %w", id, err)
	}
	return nil
}

func (s *userStore) scanOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user: %w", err)
	}
	var u models.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("failed to decode user document: %w", err)
	}
	return &u, nil
}
