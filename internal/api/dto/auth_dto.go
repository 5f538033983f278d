package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// RegisterRequest payload for self-registration.
type RegisterRequest struct {
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ResetPasswordRequest payload used by administrators.
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// CreateUserRequest payload used by administrators.
type CreateUserRequest struct {
	Login       string      `json:"login"`
	DisplayName string      `json:"display_name"`
	Role        domain.Role `json:"role"`
	Password    string      `json:"password"`
}

// UpdateUserRequest payload.
type UpdateUserRequest struct {
	Login       string      `json:"login"`
	DisplayName string      `json:"display_name"`
	Role        domain.Role `json:"role"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID          int64       `json:"id"`
	Login       string      `json:"login"`
	DisplayName string      `json:"display_name"`
	Role        domain.Role `json:"role"`
	CreatedAt   time.Time   `json:"created_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Login:       user.Login,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		CreatedAt:   user.CreatedAt,
	}
}

// SettingsRequest payload.
type SettingsRequest struct {
	Theme                domain.Theme `json:"theme"`
	AttachmentsPath      string       `json:"attachments_path"`
	NotificationsEnabled *bool        `json:"notifications_enabled"`
}

// SettingsResponse mirrors stored settings.
type SettingsResponse struct {
	Theme                domain.Theme `json:"theme"`
	AttachmentsPath      string       `json:"attachments_path"`
	NotificationsEnabled bool         `json:"notifications_enabled"`
}
