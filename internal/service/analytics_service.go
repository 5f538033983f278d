package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/cache"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// DefaultAnalyticsWindow is used when a range bound is missing.
const DefaultAnalyticsWindow = 30 * 24 * time.Hour

// AnalyticsService aggregates requests for dashboards.
type AnalyticsService struct {
	requests repository.RequestRepository
	users    repository.UserRepository
	cache    *cache.Cache
}

// NewAnalyticsService creates the service.
func NewAnalyticsService(requests repository.RequestRepository, users repository.UserRepository, c *cache.Cache) *AnalyticsService {
	return &AnalyticsService{requests: requests, users: users, cache: c}
}

// RequestsByStatus counts requests per status name, ordered by name.
func (s *AnalyticsService) RequestsByStatus(ctx context.Context) ([]domain.StatusCount, error) {
	return cache.Remember(ctx, s.cache, "analytics:status", s.requests.CountByStatus)
}

// Timeline counts requests created per UTC day in [from, to].
func (s *AnalyticsService) Timeline(ctx context.Context, from, to time.Time) ([]domain.TimelinePoint, error) {
	key := fmt.Sprintf("analytics:timeline:%d:%d", from.UnixMilli(), to.UnixMilli())
	return cache.Remember(ctx, s.cache, key, func(ctx context.Context) ([]domain.TimelinePoint, error) {
		created, err := s.requests.CreatedTimes(ctx, from, to)
		if err != nil {
			return nil, err
		}
		return GroupByDay(created), nil
	})
}

// TechnicianLoad reports active and closed requests created in [from, to]
// for every technician, ordered by name.
func (s *AnalyticsService) TechnicianLoad(ctx context.Context, from, to time.Time) ([]domain.TechnicianLoad, error) {
	key := fmt.Sprintf("analytics:technicians:%d:%d", from.UnixMilli(), to.UnixMilli())
	return cache.Remember(ctx, s.cache, key, func(ctx context.Context) ([]domain.TechnicianLoad, error) {
		technicians, err := s.users.ListByRole(ctx, domain.RoleTech)
		if err != nil {
			return nil, err
		}
		counts, err := s.requests.CountByAssignee(ctx, from, to)
		if err != nil {
			return nil, err
		}
		byAssignee := make(map[int64]repository.AssigneeCount, len(counts))
		for _, c := range counts {
			byAssignee[c.AssigneeID] = c
		}

		result := make([]domain.TechnicianLoad, 0, len(technicians))
		for _, tech := range technicians {
			c := byAssignee[tech.ID]
			result = append(result, domain.TechnicianLoad{
				TechnicianID:   tech.ID,
				TechnicianName: tech.DisplayName,
				ActiveRequests: c.Active,
				ClosedRequests: c.Closed,
			})
		}
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].TechnicianName < result[j].TechnicianName
		})
		return result, nil
	})
}

// GroupByDay counts timestamps per UTC calendar day, ordered by day.
func GroupByDay(times []time.Time) []domain.TimelinePoint {
	counts := make(map[time.Time]int)
	for _, t := range times {
		counts[truncateDay(t)]++
	}
	points := make([]domain.TimelinePoint, 0, len(counts))
	for day, count := range counts {
		points = append(points, domain.TimelinePoint{Date: day, Count: count})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points
}

// NormalizeRange truncates both bounds to UTC days, swaps reversed bounds and
// extends to to the last instant of its day. Missing bounds default to the
// last DefaultAnalyticsWindow ending now.
func NormalizeRange(from, to *time.Time, now time.Time) (time.Time, time.Time) {
	end := now.UTC()
	if to != nil {
		end = to.UTC()
	}
	start := end.Add(-DefaultAnalyticsWindow)
	if from != nil {
		start = from.UTC()
	}

	start, end = truncateDay(start), truncateDay(end)
	if start.After(end) {
		start, end = end, start
	}
	end = end.Add(24*time.Hour - time.Millisecond)
	return start, end
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
