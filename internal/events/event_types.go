package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated  EventType = "request_created"
	EventRequestUpdated  EventType = "request_updated"
	EventRequestAssigned EventType = "request_assigned"
	EventRequestClosed   EventType = "request_closed"
	EventRequestDeleted  EventType = "request_deleted"
)

// RequestEventTypes lists every request lifecycle event.
var RequestEventTypes = []EventType{
	EventRequestCreated,
	EventRequestUpdated,
	EventRequestAssigned,
	EventRequestClosed,
	EventRequestDeleted,
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	RequestID int64          `json:"request_id"`
	ActorID   *int64         `json:"actor_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Request   domain.Request `json:"request"`
	Payload   interface{}    `json:"payload,omitempty"`
}

// NewRequestEvent stamps an event for the given request snapshot.
func NewRequestEvent(eventType EventType, request domain.Request, actorID *int64, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RequestID: request.ID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Request:   request,
		Payload:   payload,
	}
}

// RequestAssignedPayload payload.
type RequestAssignedPayload struct {
	PreviousAssigneeID *int64 `json:"previous_assignee_id,omitempty"`
	AssigneeID         int64  `json:"assignee_id"`
}

// RequestUpdatedPayload payload.
type RequestUpdatedPayload struct {
	OldStatusID int64           `json:"old_status_id"`
	NewStatusID int64           `json:"new_status_id"`
	OldPriority domain.Priority `json:"old_priority"`
	NewPriority domain.Priority `json:"new_priority"`
}
