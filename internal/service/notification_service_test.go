package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

type webhookSink struct {
	mu       sync.Mutex
	received []webhookPayload
	status   int
}

func (s *webhookSink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
		s.mu.Lock()
		s.received = append(s.received, payload)
		s.mu.Unlock()
	}
	if s.status != 0 {
		w.WriteHeader(s.status)
	}
}

func (s *webhookSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.received)
}

func TestNotificationLogDefaultsTimestamp(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, config.NotificationConfig{})

	n := &domain.Notification{Text: "hello", Type: domain.NotificationCreated}
	require.NoError(t, env.notification.Log(ctx, n))
	assert.NotZero(t, n.ID)
	assert.WithinDuration(t, time.Now().UTC(), n.Timestamp, 5*time.Second)

	fixed := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	kept := &domain.Notification{Text: "old", Type: domain.NotificationCreated, Timestamp: fixed}
	require.NoError(t, env.notification.Log(ctx, kept))
	assert.Equal(t, fixed, kept.Timestamp)
}

func TestNotificationRecentClamps(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, config.NotificationConfig{})
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 105; i++ {
		require.NoError(t, env.notification.Log(ctx, &domain.Notification{
			Text:      "n",
			Type:      domain.NotificationCreated,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}))
	}

	one, err := env.notification.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, base.Add(104*time.Second), one[0].Timestamp)

	capped, err := env.notification.Recent(ctx, 500)
	require.NoError(t, err)
	assert.Len(t, capped, 100)
}

func TestNotificationWebhookRespectsSettings(t *testing.T) {
	ctx := context.Background()
	sink := &webhookSink{}
	server := httptest.NewServer(sink)
	defer server.Close()

	env := newTestEnv(t, config.NotificationConfig{WebhookURL: server.URL, WebhookTimeoutSeconds: 2})

	require.NoError(t, env.notification.Log(ctx, &domain.Notification{Text: "to tech", Type: domain.NotificationAssigned, UserID: &env.techID}))
	require.Equal(t, 1, sink.count())
	assert.Equal(t, "to tech", sink.received[0].Text)
	assert.Equal(t, env.techID, *sink.received[0].UserID)

	require.NoError(t, env.settings.Upsert(ctx, domain.UserSettings{UserID: env.techID, Theme: domain.ThemeDark, AttachmentsPath: "a", NotificationsEnabled: false}))
	require.NoError(t, env.notification.Log(ctx, &domain.Notification{Text: "muted", Type: domain.NotificationClosed, UserID: &env.techID}))
	assert.Equal(t, 1, sink.count())

	require.NoError(t, env.notification.Log(ctx, &domain.Notification{Text: "audit", Type: domain.NotificationCreated}))
	assert.Equal(t, 2, sink.count())
}

func TestNotificationWebhookFailureIsNotSurfaced(t *testing.T) {
	sink := &webhookSink{status: http.StatusInternalServerError}
	server := httptest.NewServer(sink)
	defer server.Close()

	env := newTestEnv(t, config.NotificationConfig{WebhookURL: server.URL})
	err := env.notification.Log(context.Background(), &domain.Notification{Text: "x", Type: domain.NotificationCreated})
	require.NoError(t, err)
	assert.Equal(t, 1, sink.count())
}
