package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// ReportsHandler serves notifications, the technician rating and analytics.
type ReportsHandler struct {
	notifications *service.NotificationService
	rating        *service.RatingService
	analytics     *service.AnalyticsService
	now           func() time.Time
}

// NewReportsHandler constructs handler.
func NewReportsHandler(notifications *service.NotificationService, rating *service.RatingService, analytics *service.AnalyticsService) *ReportsHandler {
	return &ReportsHandler{notifications: notifications, rating: rating, analytics: analytics, now: time.Now}
}

// RecentNotifications GET /notifications/recent?take=.
func (h *ReportsHandler) RecentNotifications(c *fiber.Ctx) error {
	take := c.QueryInt("take", 20)
	notifications, err := h.notifications.Recent(c.UserContext(), take)
	if err != nil {
		return err
	}
	items := make([]dto.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		items = append(items, dto.NotificationResponse{
			ID:        n.ID,
			Text:      n.Text,
			Type:      n.Type,
			Timestamp: n.Timestamp,
			UserID:    n.UserID,
			RequestID: n.RequestID,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Ratings GET /rating.
func (h *ReportsHandler) Ratings(c *fiber.Ctx) error {
	ratings, err := h.rating.Ratings(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.RatingResponse, 0, len(ratings))
	for _, r := range ratings {
		items = append(items, dto.NewRatingResponse(r))
	}
	return c.JSON(fiber.Map{"data": items})
}

// TechnicianRating GET /rating/:id.
func (h *ReportsHandler) TechnicianRating(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	rating, err := h.rating.TechnicianRating(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRatingResponse(*rating)})
}

// StatusBreakdown GET /analytics/status.
func (h *ReportsHandler) StatusBreakdown(c *fiber.Ctx) error {
	counts, err := h.analytics.RequestsByStatus(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.StatusCountResponse, 0, len(counts))
	for _, sc := range counts {
		items = append(items, dto.StatusCountResponse{Status: sc.Status, Count: sc.Count})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Timeline GET /analytics/timeline?from=&to=.
func (h *ReportsHandler) Timeline(c *fiber.Ctx) error {
	from, to, err := h.analyticsRange(c)
	if err != nil {
		return err
	}
	points, err := h.analytics.Timeline(c.UserContext(), from, to)
	if err != nil {
		return err
	}
	items := make([]dto.TimelinePointResponse, 0, len(points))
	for _, p := range points {
		items = append(items, dto.TimelinePointResponse{Date: p.Date.Format(dateLayout), Count: p.Count})
	}
	return c.JSON(fiber.Map{"data": items, "range": dto.RangeResponse{From: from, To: to}})
}

// TechnicianLoad GET /analytics/technicians?from=&to=.
func (h *ReportsHandler) TechnicianLoad(c *fiber.Ctx) error {
	from, to, err := h.analyticsRange(c)
	if err != nil {
		return err
	}
	load, err := h.analytics.TechnicianLoad(c.UserContext(), from, to)
	if err != nil {
		return err
	}
	items := make([]dto.TechnicianLoadResponse, 0, len(load))
	for _, l := range load {
		items = append(items, dto.TechnicianLoadResponse{
			TechnicianID:   l.TechnicianID,
			TechnicianName: l.TechnicianName,
			ActiveRequests: l.ActiveRequests,
			ClosedRequests: l.ClosedRequests,
		})
	}
	return c.JSON(fiber.Map{"data": items, "range": dto.RangeResponse{From: from, To: to}})
}

func (h *ReportsHandler) analyticsRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	from, err := parseTime(c.Query("from"))
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.NewValidationError("invalid from", map[string]any{"from": c.Query("from")})
	}
	to, err := parseTime(c.Query("to"))
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.NewValidationError("invalid to", map[string]any{"to": c.Query("to")})
	}
	start, end := service.NormalizeRange(from, to, h.now())
	return start, end, nil
}
