package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mistakebook/mistakebook/internal/apperrors"
	portsrepo "github.com/mistakebook/mistakebook/internal/core/ports/repositories"
	portssvc "github.com/mistakebook/mistakebook/internal/core/ports/services"
	"github.com/mistakebook/mistakebook/internal/models"
)

type sessionService struct {
	sessions  portsrepo.SessionRepository
	questions portsrepo.QuestionRepository
	logger    *slog.Logger
}

// NewSessionService builds the server-side practice session service.
func NewSessionService(sessions portsrepo.SessionRepository, questions portsrepo.QuestionRepository, logger *slog.Logger) portssvc.SessionSvc {
	return &sessionService{sessions: sessions, questions: questions, logger: logger}
}

func (s *sessionService) ListSessions(ctx context.Context, userID string) ([]models.PracticeSession, error) {
	return s.sessions.FindSessionsByUser(ctx, userID)
}

// SaveSession inserts the session, then bumps each referenced question's
// counters. Re-posting an existing session id skips the counter pass, so
// double-submission never double-counts. The pass is sequential and
// best-effort; questions deleted since the run are skipped.
func (s *sessionService) SaveSession(ctx context.Context, userID string, ps models.PracticeSession) error {
	if ps.ID == "" {
		return fmt.Errorf("%w: session id is required", apperrors.ErrValidation)
	}
	inserted, err := s.sessions.InsertSession(ctx, userID, ps)
	if err != nil {
		return err
	}
	if !inserted {
		return nil
	}

	now := time.Now().UnixMilli()
	var firstErr error
	for _, detail := range ps.Details {
		q, err := s.questions.FindQuestionByID(ctx, detail.QuestionID)
		if err != nil {
			if !errors.Is(err, apperrors.ErrNotFound) && firstErr == nil {
				firstErr = err
			}
			continue
		}
		if detail.IsCorrect {
			q.CorrectCount++
		} else {
			q.MistakeCount++
		}
		q.LastPracticedAt = now
		if err := s.questions.SaveQuestionDoc(ctx, *q); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		s.logger.WarnContext(ctx, "session counter pass incomplete",
			slog.String("session_id", ps.ID), slog.String("error", firstErr.Error()))
	}
	return firstErr
}

func (s *sessionService) DeleteSession(ctx context.Context, userID, sessionID string) error {
	return s.sessions.DeleteSession(ctx, userID, sessionID)
}
