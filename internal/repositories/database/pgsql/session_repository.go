package pgsql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/mistakebook/mistakebook/internal/core/ports/repositories"
	"github.com/mistakebook/mistakebook/internal/models"
)

type PgxSessionRepository struct {
	db *pgxpool.Pool
}

func newPgxSessionRepository(db *pgxpool.Pool) portsrepo.SessionRepository {
	return &PgxSessionRepository{db: db}
}

var _ portsrepo.SessionRepository = (*PgxSessionRepository)(nil)

// InsertSession relies on the primary key to detect replays: an existing
// id leaves the row untouched and reports inserted=false, which the
// service layer uses to skip the counter pass.
func (r *PgxSessionRepository) InsertSession(ctx context.Context, userID string, s models.PracticeSession) (bool, error) {
	doc, err := json.Marshal(s)
	if err != nil {
		return false, fmt.Errorf("failed to encode session %s: %w", s.ID, err)
	}
	query := `
		INSERT INTO sessions (id, user_id, score, created_at, json_data)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING;
	`
	tag, err := r.db.Exec(ctx, query, s.ID, userID, s.Score, s.Date, doc)
	if err != nil {
		return false, fmt.Errorf("failed to insert session %s: %w", s.ID, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PgxSessionRepository) FindSessionsByUser(ctx context.Context, userID string) ([]models.PracticeSession, error) {
	query := `
		SELECT json_data
		FROM sessions
		WHERE user_id = $1
		ORDER BY created_at DESC;
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.PracticeSession
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		var s models.PracticeSession
		if err := json.Unmarshal(doc, &s); err != nil {
			return nil, fmt.Errorf("failed to decode session document: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session rows: %w", err)
	}
	return sessions, nil
}

func (r *PgxSessionRepository) DeleteSession(ctx context.Context, userID, sessionID string) error {
	if _, err := r.db.Exec(ctx,
		`DELETE FROM sessions WHERE id = $1 AND user_id = $2;`, sessionID, userID); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}
