package domain

// Theme is a UI theme preference.
type Theme string

const (
	ThemeLight Theme = "Light"
	ThemeDark  Theme = "Dark"
)

// UserSettings holds per-user preferences.
type UserSettings struct {
	UserID               int64
	Theme                Theme
	AttachmentsPath      string
	NotificationsEnabled bool
}

// DefaultUserSettings returns the settings used when a user has saved none.
func DefaultUserSettings(userID int64) UserSettings {
	return UserSettings{
		UserID:               userID,
		Theme:                ThemeLight,
		AttachmentsPath:      "attachments",
		NotificationsEnabled: true,
	}
}
