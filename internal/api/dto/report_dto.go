package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// LookupItem is an id/name pair.
type LookupItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NotificationResponse payload.
type NotificationResponse struct {
	ID        int64                   `json:"id"`
	Text      string                  `json:"text"`
	Type      domain.NotificationType `json:"type"`
	Timestamp time.Time               `json:"timestamp"`
	UserID    *int64                  `json:"user_id"`
	RequestID *int64                  `json:"request_id"`
}

// RatingResponse is one leaderboard row.
type RatingResponse struct {
	TechnicianID      int64  `json:"technician_id"`
	TechnicianName    string `json:"technician_name"`
	ClosedCount       int    `json:"closed_count"`
	OverdueCount      int    `json:"overdue_count"`
	HighPriorityCount int    `json:"high_priority_count"`
	Score             int    `json:"score"`
}

// NewRatingResponse maps a rating.
func NewRatingResponse(r domain.TechnicianRating) RatingResponse {
	return RatingResponse{
		TechnicianID:      r.TechnicianID,
		TechnicianName:    r.TechnicianName,
		ClosedCount:       r.ClosedCount,
		OverdueCount:      r.OverdueCount,
		HighPriorityCount: r.HighPriorityCount,
		Score:             r.Score,
	}
}

// StatusCountResponse payload.
type StatusCountResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// TimelinePointResponse payload. Date is formatted YYYY-MM-DD.
type TimelinePointResponse struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// TechnicianLoadResponse payload.
type TechnicianLoadResponse struct {
	TechnicianID   int64  `json:"technician_id"`
	TechnicianName string `json:"technician_name"`
	ActiveRequests int    `json:"active_requests"`
	ClosedRequests int    `json:"closed_requests"`
}

// RangeResponse echoes the normalized analytics window.
type RangeResponse struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}
