package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/cache"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// Score weights of the technician leaderboard.
const (
	closedWeight  = 10
	overdueWeight = 5
	highWeight    = 4
)

const ratingCacheKey = "rating"

// RatingService builds the technician leaderboard.
type RatingService struct {
	users    repository.UserRepository
	requests repository.RequestRepository
	cache    *cache.Cache
	target   time.Duration
	logger   *zap.Logger
}

// NewRatingService creates the service. target is the resolution time after
// which a closed request counts as overdue.
func NewRatingService(users repository.UserRepository, requests repository.RequestRepository, c *cache.Cache, target time.Duration, logger *zap.Logger) *RatingService {
	return &RatingService{users: users, requests: requests, cache: c, target: target, logger: logger}
}

// Ratings returns every technician ordered by score, then name.
func (s *RatingService) Ratings(ctx context.Context) ([]domain.TechnicianRating, error) {
	return cache.Remember(ctx, s.cache, ratingCacheKey, s.compute)
}

// TechnicianRating returns one technician's leaderboard row.
func (s *RatingService) TechnicianRating(ctx context.Context, technicianID int64) (*domain.TechnicianRating, error) {
	ratings, err := s.Ratings(ctx)
	if err != nil {
		return nil, err
	}
	for i := range ratings {
		if ratings[i].TechnicianID == technicianID {
			return &ratings[i], nil
		}
	}
	return nil, errTechnicianNotFound(technicianID)
}

func (s *RatingService) compute(ctx context.Context) ([]domain.TechnicianRating, error) {
	technicians, err := s.users.ListByRole(ctx, domain.RoleTech)
	if err != nil {
		return nil, err
	}
	closed, err := s.requests.ListClosedAssigned(ctx)
	if err != nil {
		return nil, err
	}
	ratings := ComputeRatings(technicians, closed, s.target)
	s.logger.Debug("rating computed", zap.Int("technicians", len(ratings)), zap.Int("closed_requests", len(closed)))
	return ratings, nil
}

// ComputeRatings scores technicians over their closed requests:
// closed*10 - overdue*5 + high*4, where overdue means the request took longer
// than target to close.
func ComputeRatings(technicians []domain.User, closed []domain.Request, target time.Duration) []domain.TechnicianRating {
	byTech := make(map[int64]*domain.TechnicianRating, len(technicians))
	ratings := make([]domain.TechnicianRating, len(technicians))
	for i, tech := range technicians {
		ratings[i] = domain.TechnicianRating{TechnicianID: tech.ID, TechnicianName: tech.DisplayName}
		byTech[tech.ID] = &ratings[i]
	}

	for _, request := range closed {
		if request.AssignedToID == nil || request.ClosedAt == nil {
			continue
		}
		rating, ok := byTech[*request.AssignedToID]
		if !ok {
			continue
		}
		rating.ClosedCount++
		if request.ClosedAt.Sub(request.CreatedAt) > target {
			rating.OverdueCount++
		}
		if request.Priority == domain.PriorityHigh {
			rating.HighPriorityCount++
		}
	}

	for i := range ratings {
		r := &ratings[i]
		r.Score = r.ClosedCount*closedWeight - r.OverdueCount*overdueWeight + r.HighPriorityCount*highWeight
	}
	sort.SliceStable(ratings, func(i, j int) bool {
		if ratings[i].Score != ratings[j].Score {
			return ratings[i].Score > ratings[j].Score
		}
		return ratings[i].TechnicianName < ratings[j].TechnicianName
	})
	return ratings
}
