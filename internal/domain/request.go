package domain

import "time"

// Priority enumerates request urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Request is a helpdesk work item (ticket).
type Request struct {
	ID           int64
	Title        string
	Description  string
	CategoryID   int64
	Priority     Priority
	StatusID     int64
	CreatedByID  int64
	AssignedToID *int64
	CreatedAt    time.Time
	ClosedAt     *time.Time
}

// IsClosed reports whether the request has been closed.
func (r *Request) IsClosed() bool {
	return r.ClosedAt != nil
}

// RequestView is a request joined with the display names of its references.
type RequestView struct {
	Request
	CategoryName   string
	StatusName     string
	CreatedByName  string
	AssignedToName *string
}
