// Package remote implements the persistence backend as a client of the
// REST API, with the same operation surface as the local adapter. The
// layer is fail-fast: no retries, no per-call timeout beyond the
// transport's own.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/mistakebook/mistakebook/internal/apperrors"
	portssvc "github.com/mistakebook/mistakebook/internal/core/ports/services"
	"github.com/mistakebook/mistakebook/internal/dto"
	"github.com/mistakebook/mistakebook/internal/models"
	"github.com/mistakebook/mistakebook/internal/utils"
)

// userIDHeader carries the caller's identity on every entity request.
const userIDHeader = "X-User-Id"

// Backend is the REST client adapter.
type Backend struct {
	baseURL string
	client  *http.Client
}

var _ portssvc.Backend = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(b *Backend) { b.client = c }
}

// New returns a remote backend against baseURL (e.g. "https://host").
func New(baseURL string, opts ...Option) *Backend {
	b := &Backend{baseURL: baseURL, client: http.DefaultClient}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// apiError is a non-2xx API reply other than 401.
type apiError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Status)
}

type authResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	User    *dto.UserResponse `json:"user"`
}

func toModelUser(u *dto.UserResponse) *models.User {
	return &models.User{
		ID:            u.ID,
		Username:      u.Username,
		Nickname:      u.Nickname,
		Avatar:        u.Avatar,
		ExternalToken: u.ExternalToken,
	}
}

// do issues one JSON request. The response body is decoded into out when
// non-nil; non-2xx statuses decode the API's {success,message} error shape.
func (b *Backend) do(ctx context.Context, method, path, userID string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(userIDHeader, userID)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var body struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if resp.StatusCode == http.StatusUnauthorized {
			return apperrors.ErrUnauthorized
		}
		return &apiError{Method: method, Path: path, Status: resp.StatusCode, Message: body.Message}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}

// Register creates the account server-side. The id and default avatar are
// assigned client-side so local and remote documents share one id scheme.
func (b *Backend) Register(ctx context.Context, username, password, nickname string) (*models.User, error) {
	req := dto.RegisterRequest{
		ID:       uuid.NewString(),
		Username: username,
		Password: password,
		Nickname: nickname,
		Avatar:   utils.DefaultAvatarURL(username),
	}
	var resp authResponse
	if err := b.do(ctx, http.MethodPost, "/api/auth/register", "", req, &resp); err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.Message == "用户名已存在" {
			return nil, apperrors.ErrDuplicate
		}
		return nil, err
	}
	if !resp.Success || resp.User == nil {
		if resp.Message == "用户名已存在" {
			return nil, apperrors.ErrDuplicate
		}
		return nil, fmt.Errorf("registration rejected: %s", resp.Message)
	}
	return toModelUser(resp.User), nil
}

func (b *Backend) Login(ctx context.Context, username, password string) (*models.User, error) {
	req := dto.LoginRequest{Username: username, Password: password}
	var resp authResponse
	if err := b.do(ctx, http.MethodPost, "/api/auth/login", "", req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.User == nil {
		return nil, apperrors.ErrUnauthorized
	}
	return toModelUser(resp.User), nil
}

func (b *Backend) UpdateUser(ctx context.Context, userID string, req dto.UpdateUserRequest) (*models.User, error) {
	var resp dto.UpdateUserResponse
	if err := b.do(ctx, http.MethodPut, "/api/user", userID, req, &resp); err != nil {
		return nil, err
	}
	return &models.User{
		ID:            userID,
		Nickname:      req.Nickname,
		Avatar:        req.Avatar,
		ExternalToken: resp.ExternalToken,
	}, nil
}

// listQuestions fetches the raw server listing, soft-deleted included.
func (b *Backend) listQuestions(ctx context.Context, userID string) ([]models.Question, error) {
	var questions []models.Question
	if err := b.do(ctx, http.MethodGet, "/api/questions", userID, nil, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (b *Backend) GetQuestions(ctx context.Context, userID string) ([]models.Question, error) {
	all, err := b.listQuestions(ctx, userID)
	if err != nil {
		return nil, err
	}
	questions := make([]models.Question, 0, len(all))
	for _, q := range all {
		if !q.IsDeleted() {
			questions = append(questions, q)
		}
	}
	return questions, nil
}

func (b *Backend) GetQuestion(ctx context.Context, userID, questionID string) (*models.Question, error) {
	all, err := b.listQuestions(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == questionID {
			return &all[i], nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// SaveQuestion ships the full document; the server performs the same
// externalization of oversized materials and the notes image, keeping the
// stored shape compatible with the local backend's.
func (b *Backend) SaveQuestion(ctx context.Context, userID string, q models.Question) error {
	return b.do(ctx, http.MethodPost, "/api/questions", userID, q, nil)
}

func (b *Backend) DeleteQuestion(ctx context.Context, userID, questionID string, hard bool) error {
	path := fmt.Sprintf("/api/questions/%s?hard=%t", questionID, hard)
	return b.do(ctx, http.MethodDelete, path, userID, nil, nil)
}

func (b *Backend) RestoreQuestion(ctx context.Context, userID, questionID string) error {
	q, err := b.GetQuestion(ctx, userID, questionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}
	q.DeletedAt = nil
	return b.SaveQuestion(ctx, userID, *q)
}

// HydrateQuestionImages round-trips only when the document actually holds
// an unresolved image sentinel; otherwise it is a pure pass-through.
// Rich-text fields are stored inline server-side and need no resolution.
func (b *Backend) HydrateQuestionImages(ctx context.Context, userID string, q models.Question) (models.Question, error) {
	if !q.HasDeferredImages() {
		return q, nil
	}
	var images dto.QuestionImagesResponse
	path := fmt.Sprintf("/api/questions/%s/images", q.ID)
	if err := b.do(ctx, http.MethodGet, path, userID, nil, &images); err != nil {
		return q, err
	}

	materials := make([]models.MaterialSlot, len(q.Materials))
	copy(materials, q.Materials)
	for i, slot := range materials {
		if !slot.Deferred {
			continue
		}
		data := ""
		if i < len(images.Materials) {
			data = images.Materials[i]
		}
		materials[i] = models.Inline(data)
	}
	q.Materials = materials

	if q.NotesImage.Deferred {
		q.NotesImage = models.Inline(images.NotesImage)
	}
	return q, nil
}

func (b *Backend) GetSessions(ctx context.Context, userID string) ([]models.PracticeSession, error) {
	var sessions []models.PracticeSession
	if err := b.do(ctx, http.MethodGet, "/api/sessions", userID, nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// SaveSession posts the session; counter updates happen server-side, where
// re-posting an existing session id is a no-op for counters. The
// skipStatsUpdate flag therefore has no wire representation.
func (b *Backend) SaveSession(ctx context.Context, userID string, s models.PracticeSession, _ bool) error {
	return b.do(ctx, http.MethodPost, "/api/sessions", userID, s, nil)
}

func (b *Backend) DeleteSession(ctx context.Context, userID, sessionID string) error {
	return b.do(ctx, http.MethodDelete, "/api/sessions/"+sessionID, userID, nil, nil)
}
