// Package local implements the persistence backend over the embedded
// sqlite store: document stores for the three collections, the binary
// payload store for oversized images, and the rich-content externalizer.
package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mistakebook/mistakebook/internal/apperrors"
	portsrepo "github.com/mistakebook/mistakebook/internal/core/ports/repositories"
	portssvc "github.com/mistakebook/mistakebook/internal/core/ports/services"
	"github.com/mistakebook/mistakebook/internal/dto"
	"github.com/mistakebook/mistakebook/internal/models"
	"github.com/mistakebook/mistakebook/internal/richtext"
	"github.com/mistakebook/mistakebook/internal/utils"
)

// Field tags of the two independently externalized rich-text fields.
const (
	noteFieldTag     = "rte"
	analysisFieldTag = "analysis"
)

// Backend is the local persistence adapter.
type Backend struct {
	questions portsrepo.DocumentStore[models.Question]
	sessions  portsrepo.DocumentStore[models.PracticeSession]
	users     portsrepo.UserStore
	images    portsrepo.ImageRepository
	state     portsrepo.MigrationStateRepository
	ext       *richtext.Externalizer
	threshold int
	now       func() time.Time
	logger    *slog.Logger
}

var _ portssvc.Backend = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithThreshold overrides the externalization size threshold for materials,
// the notes image and rich-text payloads alike.
func WithThreshold(n int) Option {
	return func(b *Backend) { b.threshold = n }
}

// WithClock overrides the time source (timestamps, derived keys).
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) { b.logger = l }
}

// New wires a local backend over the given repositories.
func New(
	questions portsrepo.DocumentStore[models.Question],
	sessions portsrepo.DocumentStore[models.PracticeSession],
	users portsrepo.UserStore,
	images portsrepo.ImageRepository,
	state portsrepo.MigrationStateRepository,
	opts ...Option,
) *Backend {
	b := &Backend{
		questions: questions,
		sessions:  sessions,
		users:     users,
		images:    images,
		state:     state,
		threshold: richtext.DefaultThreshold,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.ext = richtext.New(images, richtext.WithThreshold(b.threshold), richtext.WithClock(b.now))
	return b
}

func materialKey(questionID string, index int) string {
	return fmt.Sprintf("%s_mat_%d", questionID, index)
}

func notesImageKey(questionID string) string {
	return questionID + "_note"
}

// Register creates a local account. The id space is shared with the remote
// store, so ids are UUIDs here as well.
func (b *Backend) Register(ctx context.Context, username, password, nickname string) (*models.User, error) {
	if _, err := b.users.GetByUsername(ctx, username); err == nil {
		return nil, apperrors.ErrDuplicate
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Nickname:     nickname,
		Avatar:       utils.DefaultAvatarURL(username),
		CreatedAt:    b.now().UnixMilli(),
	}
	if err := b.users.Put(ctx, user.ID, "", user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	return &user, nil
}

func (b *Backend) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := b.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperrors.ErrUnauthorized
	}
	return user, nil
}

func (b *Backend) UpdateUser(ctx context.Context, userID string, req dto.UpdateUserRequest) (*models.User, error) {
	user, err := b.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Nickname != "" {
		user.Nickname = req.Nickname
	}
	if req.Avatar != "" {
		user.Avatar = req.Avatar
	}
	if req.Password != "" {
		hash, err := utils.HashPassword(req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	switch {
	case req.ExternalToken != "":
		user.ExternalToken = req.ExternalToken
	case user.ExternalToken == "":
		user.ExternalToken = uuid.NewString()
	}
	if err := b.users.Put(ctx, user.ID, "", *user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (b *Backend) GetQuestions(ctx context.Context, userID string) ([]models.Question, error) {
	all, err := b.questions.GetAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	questions := make([]models.Question, 0, len(all))
	for _, q := range all {
		if !q.IsDeleted() {
			questions = append(questions, q)
		}
	}
	sort.Slice(questions, func(i, j int) bool {
		return questions[i].CreatedAt > questions[j].CreatedAt
	})
	return questions, nil
}

func (b *Backend) GetQuestion(ctx context.Context, _ string, questionID string) (*models.Question, error) {
	return b.questions.Get(ctx, questionID)
}

// SaveQuestion externalizes in a fixed order: noteText, analysis, then
// the materials array, then the legacy notes image. The persisted document
// is "light": no field carries a payload at or above the threshold.
func (b *Backend) SaveQuestion(ctx context.Context, userID string, q models.Question) error {
	noteText, err := b.ext.Externalize(ctx, q.NoteText, q.ID, noteFieldTag)
	if err != nil {
		return err
	}
	q.NoteText = noteText

	analysis, err := b.ext.Externalize(ctx, q.Analysis, q.ID, analysisFieldTag)
	if err != nil {
		return err
	}
	q.Analysis = analysis

	materials := make([]models.MaterialSlot, len(q.Materials))
	copy(materials, q.Materials)
	for i, slot := range materials {
		if slot.Deferred || len(slot.Data) < b.threshold {
			continue
		}
		if err := b.images.Put(ctx, materialKey(q.ID, i), slot.Data); err != nil {
			return fmt.Errorf("failed to store material %d of question %s: %w", i, q.ID, err)
		}
		materials[i] = models.Deferred()
	}
	q.Materials = materials

	if !q.NotesImage.Deferred && len(q.NotesImage.Data) >= b.threshold {
		if err := b.images.Put(ctx, notesImageKey(q.ID), q.NotesImage.Data); err != nil {
			return fmt.Errorf("failed to store notes image of question %s: %w", q.ID, err)
		}
		q.NotesImage = models.Deferred()
	}

	return b.questions.Put(ctx, q.ID, userID, q)
}

// DeleteQuestion with hard=false only stamps deletedAt; payload cleanup
// waits for a later hard delete. Hard delete enumerates every payload key
// under the question's prefix, removes them best-effort, then removes the
// document.
func (b *Backend) DeleteQuestion(ctx context.Context, userID, questionID string, hard bool) error {
	if !hard {
		q, err := b.questions.Get(ctx, questionID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil
			}
			return err
		}
		ts := b.now().UnixMilli()
		q.DeletedAt = &ts
		return b.questions.Put(ctx, questionID, userID, *q)
	}

	keys, err := b.images.KeysWithPrefix(ctx, questionID+"_")
	if err != nil {
		return err
	}
	if err := b.images.DeleteMany(ctx, keys); err != nil {
		return err
	}
	return b.questions.Delete(ctx, questionID)
}

func (b *Backend) RestoreQuestion(ctx context.Context, userID, questionID string) error {
	q, err := b.questions.Get(ctx, questionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}
	q.DeletedAt = nil
	return b.questions.Put(ctx, questionID, userID, *q)
}

// HydrateQuestionImages resolves every deferred slot and rich-text token
// of q. Missing payloads degrade to empty strings (materials, notes image)
// or leave the token in place (rich text); neither is fatal.
func (b *Backend) HydrateQuestionImages(ctx context.Context, _ string, q models.Question) (models.Question, error) {
	materials := make([]models.MaterialSlot, len(q.Materials))
	copy(materials, q.Materials)
	for i, slot := range materials {
		if !slot.Deferred {
			continue
		}
		data, ok, err := b.images.Get(ctx, materialKey(q.ID, i))
		if err != nil {
			return q, err
		}
		if !ok {
			data = ""
		}
		materials[i] = models.Inline(data)
	}
	q.Materials = materials

	if q.NotesImage.Deferred {
		data, ok, err := b.images.Get(ctx, notesImageKey(q.ID))
		if err != nil {
			return q, err
		}
		if !ok {
			data = ""
		}
		q.NotesImage = models.Inline(data)
	}

	noteText, err := b.ext.Inline(ctx, q.NoteText, noteFieldTag)
	if err != nil {
		return q, err
	}
	q.NoteText = noteText

	analysis, err := b.ext.Inline(ctx, q.Analysis, analysisFieldTag)
	if err != nil {
		return q, err
	}
	q.Analysis = analysis

	return q, nil
}

func (b *Backend) GetSessions(ctx context.Context, userID string) ([]models.PracticeSession, error) {
	sessions, err := b.sessions.GetAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Date > sessions[j].Date
	})
	return sessions, nil
}

// SaveSession persists the session, then walks its details bumping each
// referenced question's counters. The counter pass is skipped when asked
// to, and when the session id was already stored, which makes re-saving
// the same session idempotent. The pass is sequential and best-effort:
// a failure partway leaves earlier questions updated.
func (b *Backend) SaveSession(ctx context.Context, userID string, s models.PracticeSession, skipStatsUpdate bool) error {
	_, err := b.sessions.Get(ctx, s.ID)
	existed := err == nil

	if err := b.sessions.Put(ctx, s.ID, userID, s); err != nil {
		return err
	}
	if skipStatsUpdate || existed {
		return nil
	}

	now := b.now().UnixMilli()
	var firstErr error
	for _, detail := range s.Details {
		q, err := b.questions.Get(ctx, detail.QuestionID)
		if err != nil {
			// Questions deleted since the practice run are skipped.
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
		if err := b.questions.Put(ctx, q.ID, userID, *q); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (b *Backend) DeleteSession(ctx context.Context, _ string, sessionID string) error {
	return b.sessions.Delete(ctx, sessionID)
}
