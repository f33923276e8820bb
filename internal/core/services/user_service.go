package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mistakebook/mistakebook/internal/apperrors"
	portsrepo "github.com/mistakebook/mistakebook/internal/core/ports/repositories"
	portssvc "github.com/mistakebook/mistakebook/internal/core/ports/services"
	"github.com/mistakebook/mistakebook/internal/dto"
	"github.com/mistakebook/mistakebook/internal/models"
	"github.com/mistakebook/mistakebook/internal/utils"
)

type userService struct {
	users       portsrepo.UserRepository
	tokenSecret string
	logger      *slog.Logger
}

// NewUserService builds the server-side account service. tokenSecret
// signs freshly minted external tokens.
func NewUserService(users portsrepo.UserRepository, tokenSecret string, logger *slog.Logger) portssvc.UserSvc {
	return &userService{users: users, tokenSecret: tokenSecret, logger: logger}
}

// Register creates the account row. The external token is minted here so
// the browser extension works without a prior PUT /api/user.
func (s *userService) Register(ctx context.Context, req dto.RegisterRequest) (*models.User, error) {
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	avatar := req.Avatar
	if avatar == "" {
		avatar = utils.DefaultAvatarURL(req.Username)
	}
	token, err := utils.MintExternalToken(s.tokenSecret, id)
	if err != nil {
		return nil, fmt.Errorf("failed to mint external token: %w", err)
	}

	user := models.User{
		ID:            id,
		Username:      req.Username,
		PasswordHash:  hash,
		Nickname:      req.Nickname,
		Avatar:        avatar,
		ExternalToken: token,
		CreatedAt:     time.Now().UnixMilli(),
	}
	if err := s.users.SaveUser(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, apperrors.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID))
	return &user, nil
}

func (s *userService) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperrors.ErrUnauthorized
	}
	return user, nil
}

// UpdateUser rewrites the profile row. The effective external token is, in
// order: the one supplied, the stored one, or a freshly minted one.
func (s *userService) UpdateUser(ctx context.Context, userID string, req dto.UpdateUserRequest) (string, error) {
	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		return "", err
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
			return "", fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	switch {
	case req.ExternalToken != "":
		user.ExternalToken = req.ExternalToken
	case user.ExternalToken == "":
		token, err := utils.MintExternalToken(s.tokenSecret, user.ID)
		if err != nil {
			return "", fmt.Errorf("failed to mint external token: %w", err)
		}
		user.ExternalToken = token
	}
	if err := s.users.UpdateUser(ctx, *user); err != nil {
		return "", fmt.Errorf("failed to update user: %w", err)
	}
	return user.ExternalToken, nil
}
