package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

type countingRecorder map[string]int

func (c countingRecorder) RecordEvent(eventType string) { c[eventType]++ }

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	recorder := countingRecorder{}
	d := NewInMemoryDispatcher(zap.NewNop(), recorder)

	var got []Event
	d.Subscribe(EventRequestAssigned, func(_ context.Context, e Event) error {
		got = append(got, e)
		return nil
	})

	event := NewRequestEvent(EventRequestAssigned, domain.Request{ID: 4, Title: "Printer"}, nil, RequestAssignedPayload{AssigneeID: 2})
	require.NoError(t, d.Publish(context.Background(), event))
	require.NoError(t, d.Publish(context.Background(), NewRequestEvent(EventRequestClosed, domain.Request{ID: 4}, nil, nil)))

	require.Len(t, got, 1)
	assert.Equal(t, int64(4), got[0].RequestID)
	assert.NotEmpty(t, got[0].ID)
	assert.Equal(t, int64(2), got[0].Payload.(RequestAssignedPayload).AssigneeID)
	assert.Equal(t, 1, recorder[string(EventRequestAssigned)])
	assert.Equal(t, 1, recorder[string(EventRequestClosed)])
}

func TestDispatcherLogsHandlerErrorsAndContinues(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d := NewInMemoryDispatcher(zap.New(core), nil)

	calls := 0
	d.Subscribe(EventRequestCreated, func(context.Context, Event) error {
		calls++
		return errors.New("boom")
	})
	d.Subscribe(EventRequestCreated, func(context.Context, Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), NewRequestEvent(EventRequestCreated, domain.Request{ID: 1}, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "event handler failed", logs.All()[0].Message)
}

func TestSubscribeAll(t *testing.T) {
	d := NewInMemoryDispatcher(nil, nil)
	seen := map[EventType]bool{}
	SubscribeAll(d, func(_ context.Context, e Event) error {
		seen[e.Type] = true
		return nil
	})

	for _, eventType := range RequestEventTypes {
		require.NoError(t, d.Publish(context.Background(), NewRequestEvent(eventType, domain.Request{ID: 1}, nil, nil)))
	}
	assert.Len(t, seen, len(RequestEventTypes))
}
