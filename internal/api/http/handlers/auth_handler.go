package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// AuthHandler exposes login, registration and self-service endpoints.
type AuthHandler struct {
	auth     *service.AuthService
	settings *service.SettingsService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, settingsService *service.SettingsService) *AuthHandler {
	return &AuthHandler{auth: authService, settings: settingsService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Login == "" || req.Password == "" {
		return apperrors.NewValidationError("login and password required", nil)
	}

	user, token, exp, err := h.auth.Login(c.UserContext(), req.Login, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(user),
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, token, exp, err := h.auth.RegisterUser(c.UserContext(), req.Login, req.DisplayName, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(user),
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Exists handles GET /auth/users/exists?login=.
func (h *AuthHandler) Exists(c *fiber.Ctx) error {
	exists, err := h.auth.UserExists(c.UserContext(), c.Query("login"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"exists": exists}})
}

// ChangePassword handles POST /auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.ChangePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.auth.ChangePassword(c.UserContext(), p.ID(), req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Me handles GET /me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(p.User)})
}

// GetSettings handles GET /me/settings.
func (h *AuthHandler) GetSettings(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	settings, err := h.settings.Get(c.UserContext(), p.ID())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": settingsResponse(settings)})
}

// SaveSettings handles PUT /me/settings. Omitted fields keep their current value.
func (h *AuthHandler) SaveSettings(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.SettingsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	current, err := h.settings.Get(c.UserContext(), p.ID())
	if err != nil {
		return err
	}
	input := service.SettingsInput{
		Theme:                current.Theme,
		AttachmentsPath:      current.AttachmentsPath,
		NotificationsEnabled: &current.NotificationsEnabled,
	}
	if req.Theme != "" {
		input.Theme = req.Theme
	}
	if req.AttachmentsPath != "" {
		input.AttachmentsPath = req.AttachmentsPath
	}
	if req.NotificationsEnabled != nil {
		input.NotificationsEnabled = req.NotificationsEnabled
	}

	saved, err := h.settings.Save(c.UserContext(), p.ID(), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": settingsResponse(saved)})
}

func settingsResponse(settings domain.UserSettings) dto.SettingsResponse {
	return dto.SettingsResponse{
		Theme:                settings.Theme,
		AttachmentsPath:      settings.AttachmentsPath,
		NotificationsEnabled: settings.NotificationsEnabled,
	}
}
