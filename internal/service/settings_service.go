package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// SettingsService reads and saves per-user preferences.
type SettingsService struct {
	settings repository.SettingsRepository
	logger   *zap.Logger
}

// SettingsInput carries the editable preferences. A nil
// NotificationsEnabled means enabled.
type SettingsInput struct {
	Theme                domain.Theme `json:"theme" validate:"required,oneof=Light Dark"`
	AttachmentsPath      string       `json:"attachments_path" validate:"required,max=260"`
	NotificationsEnabled *bool        `json:"notifications_enabled"`
}

// NewSettingsService builds the service.
func NewSettingsService(settings repository.SettingsRepository, logger *zap.Logger) *SettingsService {
	return &SettingsService{settings: settings, logger: logger}
}

// Get returns the saved settings or the defaults.
func (s *SettingsService) Get(ctx context.Context, userID int64) (domain.UserSettings, error) {
	settings, err := s.settings.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DefaultUserSettings(userID), nil
		}
		return domain.UserSettings{}, err
	}
	return *settings, nil
}

// Save validates and upserts settings.
func (s *SettingsService) Save(ctx context.Context, userID int64, input SettingsInput) (domain.UserSettings, error) {
	input.AttachmentsPath = strings.TrimSpace(input.AttachmentsPath)
	if err := validateStruct(input); err != nil {
		return domain.UserSettings{}, err
	}
	settings := domain.UserSettings{
		UserID:               userID,
		Theme:                input.Theme,
		AttachmentsPath:      input.AttachmentsPath,
		NotificationsEnabled: input.NotificationsEnabled == nil || *input.NotificationsEnabled,
	}
	if err := s.settings.Upsert(ctx, settings); err != nil {
		return domain.UserSettings{}, err
	}
	s.logger.Info("settings saved", zap.Int64("user_id", userID), zap.String("theme", string(settings.Theme)))
	return settings, nil
}
