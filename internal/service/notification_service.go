package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

const (
	minRecentNotifications = 1
	maxRecentNotifications = 100
)

// NotificationService persists notifications and turns request events into
// notifications for the affected users.
type NotificationService struct {
	notifications repository.NotificationRepository
	settings      repository.SettingsRepository
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	cfg           config.NotificationConfig
	client        *http.Client
	now           func() time.Time
}

// NotificationDependencies bundles repositories for the notification service.
type NotificationDependencies struct {
	NotificationRepo repository.NotificationRepository
	SettingsRepo     repository.SettingsRepository
	Dispatcher       events.Dispatcher
}

// NewNotificationService creates the service.
func NewNotificationService(cfg config.NotificationConfig, deps NotificationDependencies, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		notifications: deps.NotificationRepo,
		settings:      deps.SettingsRepo,
		dispatcher:    deps.Dispatcher,
		logger:        logger,
		cfg:           cfg,
		client:        &http.Client{Timeout: cfg.WebhookTimeout()},
		now:           time.Now,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventRequestCreated, n.handleRequestCreated)
	n.dispatcher.Subscribe(events.EventRequestAssigned, n.handleRequestAssigned)
	n.dispatcher.Subscribe(events.EventRequestClosed, n.handleRequestClosed)
}

// Log stores a notification, defaulting its timestamp to now.
func (n *NotificationService) Log(ctx context.Context, notification *domain.Notification) error {
	if notification.Timestamp.IsZero() {
		notification.Timestamp = n.now().UTC()
	}
	if err := n.notifications.Create(ctx, notification); err != nil {
		return err
	}
	userID := int64(0)
	if notification.UserID != nil {
		userID = *notification.UserID
	}
	n.logger.Info("notification logged",
		zap.Int64("notification_id", notification.ID),
		zap.Int64("user_id", userID),
		zap.String("type", string(notification.Type)))
	n.deliverWebhook(ctx, notification)
	return nil
}

// Recent returns the newest notifications; take is clamped to [1, 100].
func (n *NotificationService) Recent(ctx context.Context, take int) ([]domain.Notification, error) {
	if take < minRecentNotifications {
		take = minRecentNotifications
	}
	if take > maxRecentNotifications {
		take = maxRecentNotifications
	}
	return n.notifications.Recent(ctx, take)
}

func (n *NotificationService) handleRequestCreated(ctx context.Context, event events.Event) error {
	return n.Log(ctx, &domain.Notification{
		Text:      fmt.Sprintf("Request %s created", event.Request.Title),
		Type:      domain.NotificationCreated,
		RequestID: &event.RequestID,
	})
}

func (n *NotificationService) handleRequestAssigned(ctx context.Context, event events.Event) error {
	assignee := event.Request.AssignedToID
	if payload, ok := event.Payload.(events.RequestAssignedPayload); ok {
		assignee = &payload.AssigneeID
	}
	return n.Log(ctx, &domain.Notification{
		Text:      fmt.Sprintf("Request %s assigned to you", event.Request.Title),
		Type:      domain.NotificationAssigned,
		UserID:    assignee,
		RequestID: &event.RequestID,
	})
}

func (n *NotificationService) handleRequestClosed(ctx context.Context, event events.Event) error {
	return n.Log(ctx, &domain.Notification{
		Text:      fmt.Sprintf("Request %s closed", event.Request.Title),
		Type:      domain.NotificationClosed,
		UserID:    event.Request.AssignedToID,
		RequestID: &event.RequestID,
	})
}

type webhookPayload struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	UserID    *int64    `json:"user_id,omitempty"`
	RequestID *int64    `json:"request_id,omitempty"`
}

// deliverWebhook posts the notification when a webhook is configured and the
// recipient has not opted out. Failures are logged only.
func (n *NotificationService) deliverWebhook(ctx context.Context, notification *domain.Notification) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	if notification.UserID != nil && !n.notificationsEnabled(ctx, *notification.UserID) {
		n.logger.Debug("webhook skipped: recipient opted out", zap.Int64("user_id", *notification.UserID))
		return
	}

	body, err := json.Marshal(webhookPayload{
		ID:        notification.ID,
		Text:      notification.Text,
		Type:      string(notification.Type),
		Timestamp: notification.Timestamp,
		UserID:    notification.UserID,
		RequestID: notification.RequestID,
	})
	if err != nil {
		n.logger.Warn("webhook encode failed", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		n.logger.Warn("webhook request failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("webhook delivery failed", zap.String("url", n.cfg.WebhookURL), zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		n.logger.Warn("webhook rejected", zap.String("url", n.cfg.WebhookURL), zap.Int("status", resp.StatusCode))
		return
	}
	n.logger.Debug("webhook delivered", zap.Int64("notification_id", notification.ID))
}

func (n *NotificationService) notificationsEnabled(ctx context.Context, userID int64) bool {
	if n.settings == nil {
		return true
	}
	settings, err := n.settings.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			n.logger.Warn("load settings failed", zap.Int64("user_id", userID), zap.Error(err))
		}
		return domain.DefaultUserSettings(userID).NotificationsEnabled
	}
	return settings.NotificationsEnabled
}
