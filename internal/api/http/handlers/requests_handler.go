package handlers

import (
	"bytes"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// RequestsHandler manages request endpoints. Every operation is scoped to
// what the caller's role may see or change.
type RequestsHandler struct {
	service *service.RequestService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requestService *service.RequestService) *RequestsHandler {
	return &RequestsHandler{service: requestService}
}

// List GET /requests.
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	filter, err := parseRequestFilter(c)
	if err != nil {
		return err
	}
	views, err := h.service.List(c.UserContext(), service.ScopeFilter(p.User, filter))
	if err != nil {
		return err
	}
	items := make([]dto.RequestResponse, 0, len(views))
	for i := range views {
		items = append(items, dto.NewRequestResponse(&views[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /requests/:id.
func (h *RequestsHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	view, err := h.visible(c, p.User)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(view)})
}

// Create POST /requests.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.RequestBody
	if err := parseBody(c, &req); err != nil {
		return err
	}
	input := requestInput(req)
	if req.AssignedToID != nil && !p.Is(domain.RoleAdmin) && !(p.Is(domain.RoleTech) && *req.AssignedToID == p.ID()) {
		return apperrors.NewForbidden("only administrators may assign other technicians")
	}

	view, err := h.service.Create(c.UserContext(), p.ID(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewRequestResponse(view)})
}

// Update PUT /requests/:id.
func (h *RequestsHandler) Update(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	current, err := h.visible(c, p.User)
	if err != nil {
		return err
	}
	if !service.CanEdit(p.User, &current.Request) {
		return apperrors.NewForbidden("not allowed to edit this request")
	}
	var req dto.RequestBody
	if err := parseBody(c, &req); err != nil {
		return err
	}
	input := requestInput(req)
	if input.StatusID == 0 {
		input.StatusID = current.StatusID
	}

	actor := p.ID()
	view, err := h.service.Update(c.UserContext(), current.ID, input, &actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(view)})
}

// Delete DELETE /requests/:id.
func (h *RequestsHandler) Delete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	current, err := h.visible(c, p.User)
	if err != nil {
		return err
	}
	if !service.CanDelete(p.User, &current.Request) {
		return apperrors.NewForbidden("not allowed to delete this request")
	}
	actor := p.ID()
	if err := h.service.Delete(c.UserContext(), current.ID, &actor); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Assign POST /requests/:id/assign. Without a technician_id the caller takes the request.
func (h *RequestsHandler) Assign(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	current, err := h.visible(c, p.User)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	technicianID := p.ID()
	if req.TechnicianID != nil {
		technicianID = *req.TechnicianID
	}
	if !service.CanAssign(p.User, &current.Request, technicianID) {
		return apperrors.NewForbidden("not allowed to assign this request")
	}

	actor := p.ID()
	view, err := h.service.Assign(c.UserContext(), current.ID, technicianID, &actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(view)})
}

// Close POST /requests/:id/close.
func (h *RequestsHandler) Close(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	current, err := h.visible(c, p.User)
	if err != nil {
		return err
	}
	if !service.CanClose(p.User, &current.Request) {
		return apperrors.NewForbidden("not allowed to close this request")
	}
	actor := p.ID()
	view, err := h.service.Close(c.UserContext(), current.ID, &actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(view)})
}

// Export GET /requests/export renders the scoped listing as CSV.
func (h *RequestsHandler) Export(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	filter, err := parseRequestFilter(c)
	if err != nil {
		return err
	}
	filter.Limit, filter.Offset = 0, 0

	var buf bytes.Buffer
	if _, err := h.service.Export(c.UserContext(), &buf, service.ScopeFilter(p.User, filter)); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="requests.csv"`)
	return c.Send(buf.Bytes())
}

// visible loads the request named by :id, reporting requests outside the
// caller's scope as not found.
func (h *RequestsHandler) visible(c *fiber.Ctx, caller *domain.User) (*domain.RequestView, error) {
	id, err := pathID(c)
	if err != nil {
		return nil, err
	}
	view, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if !service.CanView(caller, &view.Request) {
		return nil, apperrors.NewDomainError(service.CodeRequestNotFound, "request not found", http.StatusNotFound, map[string]any{"id": id})
	}
	return view, nil
}

func requestInput(req dto.RequestBody) service.RequestInput {
	return service.RequestInput{
		Title:        req.Title,
		Description:  req.Description,
		CategoryID:   req.CategoryID,
		Priority:     req.Priority,
		StatusID:     req.StatusID,
		AssignedToID: req.AssignedToID,
	}
}
