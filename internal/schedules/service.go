package schedules

import (
	"context"
	"errors"
	"fmt"

	"busline/internal/shared/constants"
	"busline/pkg/cache"
	"busline/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service is the read-only schedule/location directory the reservation
// core depends on
type Service interface {
	GetScheduleByID(ctx context.Context, id string) (*Schedule, error)
	ListSchedules(ctx context.Context, limit, offset int) ([]Schedule, error)
	SearchByRoute(ctx context.Context, fromID, toID string) ([]Schedule, error)
	ListLocations(ctx context.Context) ([]Location, error)
	LocationIDByName(ctx context.Context, name string) (uuid.UUID, error)

	// SetCacheService injects the cache service dependency
	SetCacheService(cacheService cache.Service)
}

type service struct {
	repo         Repository
	cacheService cache.Service
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// SetCacheService enables read-through caching for directory lookups
func (s *service) SetCacheService(cacheService cache.Service) {
	s.cacheService = cacheService
}

func (s *service) GetScheduleByID(ctx context.Context, id string) (*Schedule, error) {
	scheduleID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule ID: %w", err)
	}

	if s.cacheService != nil {
		cacheKey := constants.BuildScheduleKey(id)
		var cached Schedule
		if err := s.cacheService.Get(ctx, cacheKey, &cached); err == nil {
			logger.GetDefault().Debug("cache hit for schedule", "key", cacheKey)
			return &cached, nil
		}
	}

	schedule, err := s.repo.GetScheduleByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("schedule not found")
		}
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	if s.cacheService != nil {
		cacheKey := constants.BuildScheduleKey(id)
		if err := s.cacheService.Set(ctx, cacheKey, schedule, constants.TTL_SEMI_STATIC_MEDIUM); err != nil {
			logger.GetDefault().Debug("failed to cache schedule", "error", err)
		}
	}

	return schedule, nil
}

func (s *service) ListSchedules(ctx context.Context, limit, offset int) ([]Schedule, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListSchedules(ctx, limit, offset)
}

func (s *service) SearchByRoute(ctx context.Context, fromID, toID string) ([]Schedule, error) {
	fromUUID, err := uuid.Parse(fromID)
	if err != nil {
		return nil, fmt.Errorf("invalid from location ID: %w", err)
	}
	toUUID, err := uuid.Parse(toID)
	if err != nil {
		return nil, fmt.Errorf("invalid to location ID: %w", err)
	}

	if s.cacheService != nil {
		cacheKey := constants.BuildRouteSearchKey(fromID, toID)
		var cached []Schedule
		if err := s.cacheService.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	out, err := s.repo.SearchByRoute(ctx, fromUUID, toUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to search schedules: %w", err)
	}

	if s.cacheService != nil {
		cacheKey := constants.BuildRouteSearchKey(fromID, toID)
		if err := s.cacheService.Set(ctx, cacheKey, out, constants.TTL_SEMI_STATIC_QUICK); err != nil {
			logger.GetDefault().Debug("failed to cache route search", "error", err)
		}
	}

	return out, nil
}

func (s *service) ListLocations(ctx context.Context) ([]Location, error) {
	if s.cacheService != nil {
		var cached []Location
		if err := s.cacheService.Get(ctx, constants.BuildLocationListKey(), &cached); err == nil {
			return cached, nil
		}
	}

	out, err := s.repo.ListLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}

	if s.cacheService != nil {
		if err := s.cacheService.Set(ctx, constants.BuildLocationListKey(), out, constants.TTL_STATIC_LONG); err != nil {
			logger.GetDefault().Debug("failed to cache locations", "error", err)
		}
	}

	return out, nil
}

// LocationIDByName is the location-name-to-id lookup, memoized through
// the cache
func (s *service) LocationIDByName(ctx context.Context, name string) (uuid.UUID, error) {
	if s.cacheService != nil {
		var cached uuid.UUID
		if err := s.cacheService.Get(ctx, constants.BuildLocationNameKey(name), &cached); err == nil {
			return cached, nil
		}
	}

	location, err := s.repo.GetLocationByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, fmt.Errorf("location not found: %s", name)
		}
		return uuid.Nil, fmt.Errorf("failed to look up location: %w", err)
	}

	if s.cacheService != nil {
		if err := s.cacheService.Set(ctx, constants.BuildLocationNameKey(name), location.ID, constants.TTL_STATIC_LONG); err != nil {
			logger.GetDefault().Debug("failed to cache location id", "error", err)
		}
	}

	return location.ID, nil
}
