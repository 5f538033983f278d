package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RequestBody payload for creating and updating requests.
type RequestBody struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	CategoryID   int64           `json:"category_id"`
	Priority     domain.Priority `json:"priority"`
	StatusID     int64           `json:"status_id"`
	AssignedToID *int64          `json:"assigned_to_id"`
}

// AssignRequest payload. A missing technician_id means the caller.
type AssignRequest struct {
	TechnicianID *int64 `json:"technician_id"`
}

// RequestResponse is a request with its resolved names.
type RequestResponse struct {
	ID             int64           `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	CategoryID     int64           `json:"category_id"`
	CategoryName   string          `json:"category_name"`
	Priority       domain.Priority `json:"priority"`
	StatusID       int64           `json:"status_id"`
	StatusName     string          `json:"status_name"`
	CreatedByID    int64           `json:"created_by_id"`
	CreatedByName  string          `json:"created_by_name"`
	AssignedToID   *int64          `json:"assigned_to_id"`
	AssignedToName *string         `json:"assigned_to_name"`
	CreatedAt      time.Time       `json:"created_at"`
	ClosedAt       *time.Time      `json:"closed_at"`
}

// NewRequestResponse maps a request view.
func NewRequestResponse(view *domain.RequestView) RequestResponse {
	return RequestResponse{
		ID:             view.ID,
		Title:          view.Title,
		Description:    view.Description,
		CategoryID:     view.CategoryID,
		CategoryName:   view.CategoryName,
		Priority:       view.Priority,
		StatusID:       view.StatusID,
		StatusName:     view.StatusName,
		CreatedByID:    view.CreatedByID,
		CreatedByName:  view.CreatedByName,
		AssignedToID:   view.AssignedToID,
		AssignedToName: view.AssignedToName,
		CreatedAt:      view.CreatedAt,
		ClosedAt:       view.ClosedAt,
	}
}
