package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// SettingsRepository stores per-user preferences.
type SettingsRepository interface {
	Get(ctx context.Context, userID int64) (*domain.UserSettings, error)
	Upsert(ctx context.Context, settings domain.UserSettings) error
}

type settingsRow struct {
	UserID               int64  `db:"user_id"`
	Theme                string `db:"theme"`
	AttachmentsPath      string `db:"attachments_path"`
	NotificationsEnabled bool   `db:"notifications_enabled"`
}

type settingsRepository struct {
	db *sqlx.DB
}

func NewSettingsRepository(db *sqlx.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

// Get returns sql.ErrNoRows when the user has never saved settings.
func (r *settingsRepository) Get(ctx context.Context, userID int64) (*domain.UserSettings, error) {
	const query = `
        SELECT user_id, theme, attachments_path, notifications_enabled
        FROM user_settings WHERE user_id=?`

	var row settingsRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), userID); err != nil {
		return nil, err
	}
	return &domain.UserSettings{
		UserID:               row.UserID,
		Theme:                domain.Theme(row.Theme),
		AttachmentsPath:      row.AttachmentsPath,
		NotificationsEnabled: row.NotificationsEnabled,
	}, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, settings domain.UserSettings) error {
	const query = `
        INSERT INTO user_settings (user_id, theme, attachments_path, notifications_enabled)
        VALUES (?, ?, ?, ?)
        ON CONFLICT (user_id) DO UPDATE SET
            theme = excluded.theme,
            attachments_path = excluded.attachments_path,
            notifications_enabled = excluded.notifications_enabled`

	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		settings.UserID,
		string(settings.Theme),
		settings.AttachmentsPath,
		settings.NotificationsEnabled,
	)
	return err
}
