package domain

import "time"

// NotificationType identifies why a notification was logged.
type NotificationType string

const (
	NotificationCreated  NotificationType = "Created"
	NotificationAssigned NotificationType = "Assigned"
	NotificationClosed   NotificationType = "Closed"
	NotificationOverdue  NotificationType = "Overdue"
)

// Notification is a persisted message addressed to a user, or to nobody for audit entries.
type Notification struct {
	ID        int64
	Text      string
	Type      NotificationType
	Timestamp time.Time
	UserID    *int64
	RequestID *int64
}
