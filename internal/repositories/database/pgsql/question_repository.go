package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mistakebook/mistakebook/internal/apperrors"
	portsrepo "github.com/mistakebook/mistakebook/internal/core/ports/repositories"
	"github.com/mistakebook/mistakebook/internal/models"
)

// PgxQuestionRepository stores each question as a light JSON document plus
// denormalized category/accuracy columns, with externalized payloads in
// question_images rows.
type PgxQuestionRepository struct {
	db *pgxpool.Pool
}

func newPgxQuestionRepository(db *pgxpool.Pool) portsrepo.QuestionRepository {
	return &PgxQuestionRepository{db: db}
}

var _ portsrepo.QuestionRepository = (*PgxQuestionRepository)(nil)

// UpsertQuestion replaces the image rows, then upserts the document. The
// steps are sequential statements, not one transaction; a failure between
// them leaves rows from the earlier step, the accepted failure mode of
// this layer.
func (r *PgxQuestionRepository) UpsertQuestion(ctx context.Context, userID string, q models.Question, images []portsrepo.QuestionImage) error {
	doc, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("failed to encode question %s: %w", q.ID, err)
	}

	if _, err := r.db.Exec(ctx, `DELETE FROM question_images WHERE question_id = $1;`, q.ID); err != nil {
		return fmt.Errorf("failed to clear image rows of question %s: %w", q.ID, err)
	}
	now := time.Now().UnixMilli()
	for _, img := range images {
		_, err := r.db.Exec(ctx,
			`INSERT INTO question_images (question_id, field_key, image_data, created_at) VALUES ($1, $2, $3, $4);`,
			q.ID, img.FieldKey, img.Data, now,
		)
		if err != nil {
			return fmt.Errorf("failed to save image row %s of question %s: %w", img.FieldKey, q.ID, err)
		}
	}

	query := `
		INSERT INTO questions (id, user_id, category, accuracy, created_at, json_data)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			category = EXCLUDED.category,
			accuracy = EXCLUDED.accuracy,
			json_data = EXCLUDED.json_data;
	`
	if _, err := r.db.Exec(ctx, query, q.ID, userID, string(q.Category), q.Accuracy, q.CreatedAt, doc); err != nil {
		return fmt.Errorf("failed to upsert question %s: %w", q.ID, err)
	}
	return nil
}

func (r *PgxQuestionRepository) FindQuestionsByUser(ctx context.Context, userID string) ([]models.Question, error) {
	query := `
		SELECT json_data
		FROM questions
		WHERE user_id = $1
		ORDER BY created_at DESC;
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan question row: %w", err)
		}
		var q models.Question
		if err := json.Unmarshal(doc, &q); err != nil {
			return nil, fmt.Errorf("failed to decode question document: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate question rows: %w", err)
	}
	return questions, nil
}

func (r *PgxQuestionRepository) FindQuestionByID(ctx context.Context, questionID string) (*models.Question, error) {
	var doc []byte
	err := r.db.QueryRow(ctx, `SELECT json_data FROM questions WHERE id = $1;`, questionID).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find question %s: %w", questionID, err)
	}
	var q models.Question
	if err := json.Unmarshal(doc, &q); err != nil {
		return nil, fmt.Errorf("failed to decode question %s: %w", questionID, err)
	}
	return &q, nil
}

func (r *PgxQuestionRepository) SaveQuestionDoc(ctx context.Context, q models.Question) error {
	doc, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("failed to encode question %s: %w", q.ID, err)
	}
	query := `UPDATE questions SET category = $1, accuracy = $2, json_data = $3 WHERE id = $4;`
	tag, err := r.db.Exec(ctx, query, string(q.Category), q.Accuracy, doc, q.ID)
	if err != nil {
		return fmt.Errorf("failed to save question document %s: %w", q.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxQuestionRepository) FindQuestionImages(ctx context.Context, questionID string) ([]portsrepo.QuestionImage, error) {
	rows, err := r.db.Query(ctx,
		`SELECT field_key, image_data FROM question_images WHERE question_id = $1;`, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query image rows of question %s: %w", questionID, err)
	}
	defer rows.Close()

	var images []portsrepo.QuestionImage
	for rows.Next() {
		var img portsrepo.QuestionImage
		if err := rows.Scan(&img.FieldKey, &img.Data); err != nil {
			return nil, fmt.Errorf("failed to scan image row: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate image rows: %w", err)
	}
	return images, nil
}

func (r *PgxQuestionRepository) DeleteQuestionHard(ctx context.Context, userID, questionID string) error {
	if _, err := r.db.Exec(ctx,
		`DELETE FROM questions WHERE id = $1 AND user_id = $2;`, questionID, userID); err != nil {
		return fmt.Errorf("failed to delete question %s: %w", questionID, err)
	}
	if _, err := r.db.Exec(ctx,
		`DELETE FROM question_images WHERE question_id = $1;`, questionID); err != nil {
		return fmt.Errorf("failed to delete image rows of question %s: %w", questionID, err)
	}
	return nil
}
