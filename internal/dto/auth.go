package dto

import "github.com/mistakebook/mistakebook/internal/models"

// RegisterRequest is the body of POST /api/auth/register. The id is
// client-assigned (the local and remote stores share id space); when empty
// the server generates one.
type RegisterRequest struct {
	ID       string `json:"id"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is the uniform auth reply: success with the user, or a
// failure message.
type AuthResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	User    *UserResponse `json:"user,omitempty"`
}

// UserResponse is the wire shape of a user; the password hash never leaves
// the server.
type UserResponse struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Nickname      string `json:"nickname"`
	Avatar        string `json:"avatar"`
	ExternalToken string `json:"externalToken,omitempty"`
}

// ToUserResponse converts a user model to its wire shape.
func ToUserResponse(u *models.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		Nickname:      u.Nickname,
		Avatar:        u.Avatar,
		ExternalToken: u.ExternalToken,
	}
}
