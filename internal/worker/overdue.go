package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// NotificationLogger persists a notification.
type NotificationLogger interface {
	Log(ctx context.Context, notification *domain.Notification) error
}

// OverdueScanner notifies assignees of open requests older than the
// resolution target. Each request is reported once.
type OverdueScanner struct {
	requests      repository.RequestRepository
	notifications repository.NotificationRepository
	notifier      NotificationLogger
	target        time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// NewOverdueScanner builds the scanner.
func NewOverdueScanner(requests repository.RequestRepository, notifications repository.NotificationRepository, notifier NotificationLogger, target time.Duration, logger *zap.Logger) *OverdueScanner {
	return &OverdueScanner{
		requests:      requests,
		notifications: notifications,
		notifier:      notifier,
		target:        target,
		logger:        logger,
		now:           time.Now,
	}
}

// Scan logs an Overdue notification for every newly overdue request and
// returns how many were logged.
func (s *OverdueScanner) Scan(ctx context.Context) (int, error) {
	cutoff := s.now().UTC().Add(-s.target)
	overdue, err := s.requests.ListOpenAssignedCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list overdue requests: %w", err)
	}

	logged := 0
	for _, request := range overdue {
		seen, err := s.notifications.ExistsForRequest(ctx, domain.NotificationOverdue, request.ID)
		if err != nil {
			return logged, fmt.Errorf("check overdue notification %d: %w", request.ID, err)
		}
		if seen {
			continue
		}
		requestID := request.ID
		err = s.notifier.Log(ctx, &domain.Notification{
			Text:      fmt.Sprintf("Request %s is overdue", request.Title),
			Type:      domain.NotificationOverdue,
			UserID:    request.AssignedToID,
			RequestID: &requestID,
		})
		if err != nil {
			return logged, fmt.Errorf("log overdue notification %d: %w", request.ID, err)
		}
		logged++
	}

	if logged > 0 {
		s.logger.Info("overdue requests reported", zap.Int("count", logged), zap.Time("cutoff", cutoff))
	}
	return logged, nil
}

// Run adapts Scan to a scheduler job.
func (s *OverdueScanner) Run(ctx context.Context) error {
	_, err := s.Scan(ctx)
	return err
}
