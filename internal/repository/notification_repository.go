package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// NotificationRepository persists the notification log.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	Recent(ctx context.Context, take int) ([]domain.Notification, error)
	ExistsForRequest(ctx context.Context, kind domain.NotificationType, requestID int64) (bool, error)
}

type notificationRow struct {
	ID        int64         `db:"id"`
	Text      string        `db:"text"`
	Type      string        `db:"type"`
	LoggedAt  int64         `db:"logged_at"`
	UserID    sql.NullInt64 `db:"user_id"`
	RequestID sql.NullInt64 `db:"request_id"`
}

type notificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository builds the repository.
func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	const query = `
        INSERT INTO notifications (text, type, logged_at, user_id, request_id)
        VALUES (?, ?, ?, ?, ?)
        RETURNING id`

	return r.db.QueryRowxContext(ctx, r.db.Rebind(query),
		notification.Text,
		string(notification.Type),
		toMillis(notification.Timestamp),
		nullID(notification.UserID),
		nullID(notification.RequestID),
	).Scan(&notification.ID)
}

func (r *notificationRepository) Recent(ctx context.Context, take int) ([]domain.Notification, error) {
	const query = `
        SELECT id, text, type, logged_at, user_id, request_id
        FROM notifications
        ORDER BY logged_at DESC, id DESC
        LIMIT ?`

	var rows []notificationRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), take); err != nil {
		return nil, err
	}
	result := make([]domain.Notification, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.Notification{
			ID:        row.ID,
			Text:      row.Text,
			Type:      domain.NotificationType(row.Type),
			Timestamp: fromMillis(row.LoggedAt),
			UserID:    fromNullID(row.UserID),
			RequestID: fromNullID(row.RequestID),
		})
	}
	return result, nil
}

func (r *notificationRepository) ExistsForRequest(ctx context.Context, kind domain.NotificationType, requestID int64) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		r.db.Rebind(`SELECT COUNT(1) FROM notifications WHERE type=? AND request_id=?`), string(kind), requestID)
	return count > 0, err
}
