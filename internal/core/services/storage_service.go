package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mistakebook/mistakebook/internal/apperrors"
	portssvc "github.com/mistakebook/mistakebook/internal/core/ports/services"
	"github.com/mistakebook/mistakebook/internal/dto"
	"github.com/mistakebook/mistakebook/internal/models"
)

// statsDayOffset shifts timestamps so day boundaries fall on UTC+8
// midnights regardless of the process's local zone.
const statsDayOffset = 8 * time.Hour

// Session is an authenticated identity returned by Login and Register.
// Every entity operation of the facade takes one; a nil session turns the
// operation into a no-op, so callers need no logged-in check of their own.
type Session struct {
	User models.User
}

// StorageService is the persistence facade the application talks to. It is
// backend-agnostic: the same calls run over the embedded store or the
// remote API depending on which Backend it was built with.
type StorageService struct {
	backend portssvc.Backend
	now     func() time.Time
	logger  *slog.Logger
}

// StorageOption configures a StorageService.
type StorageOption func(*StorageService)

// WithClock overrides the time source used for stats day buckets and
// backup timestamps.
func WithClock(now func() time.Time) StorageOption {
	return func(s *StorageService) { s.now = now }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) StorageOption {
	return func(s *StorageService) { s.logger = l }
}

// NewStorageService returns a facade over the given backend.
func NewStorageService(backend portssvc.Backend, opts ...StorageOption) *StorageService {
	s := &StorageService{
		backend: backend,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account and returns a live session for it.
func (s *StorageService) Register(ctx context.Context, username, password, nickname string) (*Session, error) {
	user, err := s.backend.Register(ctx, username, password, nickname)
	if err != nil {
		return nil, err
	}
	return &Session{User: *user}, nil
}

// Login authenticates and returns a live session.
func (s *StorageService) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.backend.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return &Session{User: *user}, nil
}

// SaveUser applies a profile update and folds the result back into the
// session, so sess.User stays current.
func (s *StorageService) SaveUser(ctx context.Context, sess *Session, req dto.UpdateUserRequest) error {
	if sess == nil {
		return nil
	}
	updated, err := s.backend.UpdateUser(ctx, sess.User.ID, req)
	if err != nil {
		return err
	}
	if req.Nickname != "" {
		sess.User.Nickname = req.Nickname
	}
	if req.Avatar != "" {
		sess.User.Avatar = req.Avatar
	}
	if updated.ExternalToken != "" {
		sess.User.ExternalToken = updated.ExternalToken
	}
	return nil
}

// GetQuestions lists the session's questions newest first, soft-deleted
// excluded. Documents come back light; use HydrateQuestion before display.
func (s *StorageService) GetQuestions(ctx context.Context, sess *Session) ([]models.Question, error) {
	if sess == nil {
		return nil, nil
	}
	return s.backend.GetQuestions(ctx, sess.User.ID)
}

// HydrateQuestion resolves a light document's externalized payloads.
func (s *StorageService) HydrateQuestion(ctx context.Context, sess *Session, q models.Question) (models.Question, error) {
	if sess == nil {
		return q, nil
	}
	return s.backend.HydrateQuestionImages(ctx, sess.User.ID, q)
}

func (s *StorageService) SaveQuestion(ctx context.Context, sess *Session, q models.Question) error {
	if sess == nil {
		return nil
	}
	return s.backend.SaveQuestion(ctx, sess.User.ID, q)
}

func (s *StorageService) DeleteQuestion(ctx context.Context, sess *Session, questionID string, hard bool) error {
	if sess == nil {
		return nil
	}
	return s.backend.DeleteQuestion(ctx, sess.User.ID, questionID, hard)
}

func (s *StorageService) RestoreQuestion(ctx context.Context, sess *Session, questionID string) error {
	if sess == nil {
		return nil
	}
	return s.backend.RestoreQuestion(ctx, sess.User.ID, questionID)
}

func (s *StorageService) GetSessions(ctx context.Context, sess *Session) ([]models.PracticeSession, error) {
	if sess == nil {
		return nil, nil
	}
	return s.backend.GetSessions(ctx, sess.User.ID)
}

func (s *StorageService) SaveSession(ctx context.Context, sess *Session, ps models.PracticeSession) error {
	if sess == nil {
		return nil
	}
	return s.backend.SaveSession(ctx, sess.User.ID, ps, false)
}

func (s *StorageService) DeleteSession(ctx context.Context, sess *Session, sessionID string) error {
	if sess == nil {
		return nil
	}
	return s.backend.DeleteSession(ctx, sess.User.ID, sessionID)
}

// dayID maps a unix-milli timestamp to its UTC+8 day number.
func dayID(tsMillis int64) int64 {
	return (tsMillis + statsDayOffset.Milliseconds()) / (24 * time.Hour).Milliseconds()
}

// GetStats aggregates over the session's non-deleted questions and all of
// its practice sessions. Mistake buckets go by question creation day;
// today's practice count sums the question lists of today's sessions.
func (s *StorageService) GetStats(ctx context.Context, sess *Session) (*dto.Stats, error) {
	if sess == nil {
		return &dto.Stats{ByCategory: emptyCategoryCounts()}, nil
	}
	questions, err := s.backend.GetQuestions(ctx, sess.User.ID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.backend.GetSessions(ctx, sess.User.ID)
	if err != nil {
		return nil, err
	}

	today := dayID(s.now().UnixMilli())
	stats := &dto.Stats{ByCategory: emptyCategoryCounts()}

	for _, q := range questions {
		stats.Total++
		if q.IsMastered {
			stats.MasteredCount++
		}
		if _, ok := stats.ByCategory[q.Category]; ok {
			stats.ByCategory[q.Category]++
		}

		diff := today - dayID(q.CreatedAt)
		switch diff {
		case 0:
			stats.TodayMistakes++
		case 1:
			stats.YesterdayMistakes++
		}
		if diff >= 0 && diff <= 6 {
			stats.WeekMistakes++
		}
		if diff >= 0 && diff <= 29 {
			stats.MonthMistakes++
		}
	}

	for _, ps := range sessions {
		if dayID(ps.Date) == today {
			stats.TodayPracticeCount += len(ps.QuestionIDs)
		}
	}
	return stats, nil
}

func emptyCategoryCounts() map[models.Category]int {
	counts := make(map[models.Category]int, len(models.Categories))
	for _, c := range models.Categories {
		counts[c] = 0
	}
	return counts
}

// ExportBackup assembles a version-1 backup of the session's account.
// Questions are exported hydrated so the file is self-contained and
// portable across backends.
func (s *StorageService) ExportBackup(ctx context.Context, sess *Session) (*models.Backup, error) {
	if sess == nil {
		return nil, apperrors.ErrNoSession
	}
	questions, err := s.backend.GetQuestions(ctx, sess.User.ID)
	if err != nil {
		return nil, err
	}
	for i := range questions {
		hydrated, err := s.backend.HydrateQuestionImages(ctx, sess.User.ID, questions[i])
		if err != nil {
			return nil, fmt.Errorf("failed to hydrate question %s for export: %w", questions[i].ID, err)
		}
		questions[i] = hydrated
	}
	sessions, err := s.backend.GetSessions(ctx, sess.User.ID)
	if err != nil {
		return nil, err
	}

	user := sess.User
	user.PasswordHash = ""
	return &models.Backup{
		Version:    models.BackupVersion,
		ExportedAt: s.now().UnixMilli(),
		User:       &user,
		Questions:  questions,
		Sessions:   sessions,
	}, nil
}

// RestoreBackup merges a backup into the account: every question and
// session is upserted by id, nothing is removed. Sessions are restored
// without the counter pass, since the question documents in the file
// already carry their counts.
func (s *StorageService) RestoreBackup(ctx context.Context, sess *Session, b *models.Backup) error {
	if sess == nil {
		return apperrors.ErrNoSession
	}
	if b == nil || b.Questions == nil {
		return fmt.Errorf("%w: 无效备份文件", apperrors.ErrValidation)
	}
	for _, q := range b.Questions {
		if err := s.backend.SaveQuestion(ctx, sess.User.ID, q); err != nil {
			return fmt.Errorf("failed to restore question %s: %w", q.ID, err)
		}
	}
	for _, ps := range b.Sessions {
		if err := s.backend.SaveSession(ctx, sess.User.ID, ps, true); err != nil {
			return fmt.Errorf("failed to restore session %s: %w", ps.ID, err)
		}
	}
	s.logger.InfoContext(ctx, "backup restored",
		slog.Int("questions", len(b.Questions)),
		slog.Int("sessions", len(b.Sessions)))
	return nil
}
