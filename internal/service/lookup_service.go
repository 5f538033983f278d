package service

import (
	"context"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// LookupService exposes reference data.
type LookupService struct {
	lookups repository.LookupRepository
}

// NewLookupService creates the service.
func NewLookupService(lookups repository.LookupRepository) *LookupService {
	return &LookupService{lookups: lookups}
}

// Categories returns categories ordered by name.
func (s *LookupService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.lookups.ListCategories(ctx)
}

// Statuses returns statuses ordered by name.
func (s *LookupService) Statuses(ctx context.Context) ([]domain.Status, error) {
	return s.lookups.ListStatuses(ctx)
}

// Priorities returns the fixed priority list.
func (s *LookupService) Priorities() []domain.Priority {
	return append([]domain.Priority(nil), domain.Priorities...)
}
