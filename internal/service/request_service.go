package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// RequestService coordinates request workflows.
type RequestService struct {
	requests   repository.RequestRepository
	users      repository.UserRepository
	lookups    repository.LookupRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// RequestDependencies bundles repositories for request service.
type RequestDependencies struct {
	RequestRepo repository.RequestRepository
	UserRepo    repository.UserRepository
	LookupRepo  repository.LookupRepository
	Dispatcher  events.Dispatcher
}

// RequestInput describes the editable request fields. StatusID defaults to
// the New status on create; AssignedToID is honoured on create only.
type RequestInput struct {
	Title        string          `json:"title" validate:"required,max=200"`
	Description  string          `json:"description" validate:"required,max=4000"`
	CategoryID   int64           `json:"category_id" validate:"gt=0"`
	Priority     domain.Priority `json:"priority" validate:"required,oneof=low medium high"`
	StatusID     int64           `json:"status_id" validate:"gt=0"`
	AssignedToID *int64          `json:"assigned_to_id" validate:"omitempty,gt=0"`
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies, logger *zap.Logger) *RequestService {
	return &RequestService{
		requests:   deps.RequestRepo,
		users:      deps.UserRepo,
		lookups:    deps.LookupRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// List returns request views matching filter, newest first.
func (s *RequestService) List(ctx context.Context, filter repository.RequestFilter) ([]domain.RequestView, error) {
	return s.requests.List(ctx, filter)
}

// Get returns one request view.
func (s *RequestService) Get(ctx context.Context, id int64) (*domain.RequestView, error) {
	view, err := s.requests.GetView(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errRequestNotFound(id)
		}
		return nil, err
	}
	return view, nil
}

// Create stores a new request on behalf of creatorID.
func (s *RequestService) Create(ctx context.Context, creatorID int64, input RequestInput) (*domain.RequestView, error) {
	if input.StatusID == 0 {
		status, err := s.lookups.GetStatusByName(ctx, domain.StatusNew)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		if status != nil {
			input.StatusID = status.ID
		}
	}
	input = normalizeRequestInput(input)
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}
	if creatorID <= 0 {
		return nil, apperrors.NewValidationError("validation failed", map[string]any{"created_by_id": "gt=0"})
	}
	if input.AssignedToID != nil {
		if _, err := s.technician(ctx, *input.AssignedToID); err != nil {
			return nil, err
		}
	}

	request := &domain.Request{
		Title:        input.Title,
		Description:  input.Description,
		CategoryID:   input.CategoryID,
		Priority:     input.Priority,
		StatusID:     input.StatusID,
		CreatedByID:  creatorID,
		AssignedToID: input.AssignedToID,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, err
	}
	s.logger.Info("request created",
		zap.Int64("request_id", request.ID),
		zap.Int64("created_by_id", creatorID),
		zap.String("priority", string(request.Priority)))
	s.publish(ctx, events.NewRequestEvent(events.EventRequestCreated, *request, &creatorID, nil))
	return s.Get(ctx, request.ID)
}

// Update edits title, description, category, priority and status. Creator,
// creation time, assignee and close time are preserved.
func (s *RequestService) Update(ctx context.Context, id int64, input RequestInput, actorID *int64) (*domain.RequestView, error) {
	input = normalizeRequestInput(input)
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	payload := events.RequestUpdatedPayload{
		OldStatusID: request.StatusID,
		NewStatusID: input.StatusID,
		OldPriority: request.Priority,
		NewPriority: input.Priority,
	}
	request.Title = input.Title
	request.Description = input.Description
	request.CategoryID = input.CategoryID
	request.Priority = input.Priority
	request.StatusID = input.StatusID

	if err := s.requests.Update(ctx, request); err != nil {
		return nil, err
	}
	s.logger.Info("request updated", zap.Int64("request_id", id))
	s.publish(ctx, events.NewRequestEvent(events.EventRequestUpdated, *request, actorID, payload))
	return s.Get(ctx, id)
}

// Delete removes a request.
func (s *RequestService) Delete(ctx context.Context, id int64, actorID *int64) error {
	request, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requests.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errRequestNotFound(id)
		}
		return err
	}
	s.logger.Info("request deleted", zap.Int64("request_id", id))
	s.publish(ctx, events.NewRequestEvent(events.EventRequestDeleted, *request, actorID, nil))
	return nil
}

// Assign hands a request to a technician.
func (s *RequestService) Assign(ctx context.Context, requestID, technicianID int64, actorID *int64) (*domain.RequestView, error) {
	request, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if _, err := s.technician(ctx, technicianID); err != nil {
		return nil, err
	}

	payload := events.RequestAssignedPayload{PreviousAssigneeID: request.AssignedToID, AssigneeID: technicianID}
	request.AssignedToID = &technicianID
	if err := s.requests.Update(ctx, request); err != nil {
		return nil, err
	}
	s.logger.Info("request assigned", zap.Int64("request_id", requestID), zap.Int64("technician_id", technicianID))
	s.publish(ctx, events.NewRequestEvent(events.EventRequestAssigned, *request, actorID, payload))
	return s.Get(ctx, requestID)
}

// Close stamps the close time and moves the request to the Closed status
// when that status exists. Closing a closed request is a no-op.
func (s *RequestService) Close(ctx context.Context, requestID int64, actorID *int64) (*domain.RequestView, error) {
	request, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.IsClosed() {
		return s.Get(ctx, requestID)
	}

	closedAt := s.now().UTC()
	request.ClosedAt = &closedAt
	status, err := s.lookups.GetStatusByName(ctx, domain.StatusClosed)
	switch {
	case err == nil:
		request.StatusID = status.ID
	case !errors.Is(err, sql.ErrNoRows):
		return nil, err
	}

	if err := s.requests.Update(ctx, request); err != nil {
		return nil, err
	}
	s.logger.Info("request closed", zap.Int64("request_id", requestID))
	s.publish(ctx, events.NewRequestEvent(events.EventRequestClosed, *request, actorID, nil))
	return s.Get(ctx, requestID)
}

// Technicians lists accounts that can be assigned requests.
func (s *RequestService) Technicians(ctx context.Context) ([]domain.User, error) {
	return s.users.ListByRole(ctx, domain.RoleTech)
}

func (s *RequestService) load(ctx context.Context, id int64) (*domain.Request, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errRequestNotFound(id)
		}
		return nil, err
	}
	return request, nil
}

func (s *RequestService) technician(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errTechnicianNotFound(id)
		}
		return nil, err
	}
	if !user.IsTechnician() {
		return nil, errTechnicianNotFound(id)
	}
	return user, nil
}

func (s *RequestService) validate(ctx context.Context, input RequestInput) error {
	if err := validateStruct(input); err != nil {
		return err
	}
	details := map[string]any{}
	if _, err := s.lookups.GetCategoryByID(ctx, input.CategoryID); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		details["category_id"] = "unknown"
	}
	if _, err := s.lookups.GetStatusByID(ctx, input.StatusID); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		details["status_id"] = "unknown"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details)
	}
	return nil
}

func (s *RequestService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func normalizeRequestInput(input RequestInput) RequestInput {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Priority = domain.Priority(strings.ToLower(strings.TrimSpace(string(input.Priority))))
	return input
}
