package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// LookupsHandler serves reference data.
type LookupsHandler struct {
	lookups *service.LookupService
}

func NewLookupsHandler(lookups *service.LookupService) *LookupsHandler {
	return &LookupsHandler{lookups: lookups}
}

// Categories GET /lookups/categories.
func (h *LookupsHandler) Categories(c *fiber.Ctx) error {
	categories, err := h.lookups.Categories(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.LookupItem, 0, len(categories))
	for _, category := range categories {
		items = append(items, dto.LookupItem{ID: category.ID, Name: category.Name})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Statuses GET /lookups/statuses.
func (h *LookupsHandler) Statuses(c *fiber.Ctx) error {
	statuses, err := h.lookups.Statuses(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.LookupItem, 0, len(statuses))
	for _, status := range statuses {
		items = append(items, dto.LookupItem{ID: status.ID, Name: status.Name})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Priorities GET /lookups/priorities.
func (h *LookupsHandler) Priorities(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.lookups.Priorities()})
}
