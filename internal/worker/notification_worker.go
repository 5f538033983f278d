package worker

import (
	"github.com/spec-kit/helpdesk-service/internal/cache"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// StartNotificationWorker registers the event subscribers: notification
// fan-out and cache invalidation.
func StartNotificationWorker(dispatcher events.Dispatcher, notificationService *service.NotificationService, c *cache.Cache) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if dispatcher != nil && c.Enabled() {
		events.SubscribeAll(dispatcher, c.HandleEvent)
	}
}
