package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/homenest/homenest/internal/cache"
	"github.com/homenest/homenest/internal/model"
)

// CityStore reads the city reference list.
type CityStore interface {
	ListCities(ctx context.Context) ([]*model.City, error)
}

// CityCache caches the city reference list.
type CityCache interface {
	GetCities(ctx context.Context) ([]*model.City, error)
	SetCities(ctx context.Context, cities []*model.City, ttl time.Duration) error
}

// CityService serves read-only city data.
type CityService struct {
	store  CityStore
	cache  CityCache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCityService creates a new CityService. cache may be nil.
func NewCityService(store CityStore, cities CityCache, ttl time.Duration, logger *slog.Logger) *CityService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CityService{store: store, cache: cities, ttl: ttl, logger: logger}
}

// List returns all cities.
func (s *CityService) List(ctx context.Context) ([]*model.City, error) {
	if s.cache != nil {
		cities, err := s.cache.GetCities(ctx)
		if err == nil {
			return cities, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("city cache read failed", slog.String("error", err.Error()))
		}
	}

	cities, err := s.store.ListCities(ctx)
	if err != nil {
		return nil, upstream("list cities", err)
	}

	if s.cache != nil {
		if err := s.cache.SetCities(ctx, cities, s.ttl); err != nil {
			s.logger.Warn("city cache write failed", slog.String("error", err.Error()))
		}
	}
	return cities, nil
}
