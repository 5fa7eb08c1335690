package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/homenest/homenest/internal/authz"
	"github.com/homenest/homenest/internal/cache"
	"github.com/homenest/homenest/internal/metrics"
	"github.com/homenest/homenest/internal/model"
	"github.com/homenest/homenest/internal/repository"
)

// PropertyStore is the record store for listings.
type PropertyStore interface {
	CreateProperty(ctx context.Context, p *model.Property) error
	GetPropertyByID(ctx context.Context, id string) (*model.Property, error)
	ListProperties(ctx context.Context, owner string) ([]*model.Property, error)
	LatestProperties(ctx context.Context, n int) ([]*model.Property, error)
	UpdateProperty(ctx context.Context, p *model.Property, owner string) (*model.Property, error)
	DeleteProperty(ctx context.Context, id, owner string) (int64, error)
}

// FeaturedCache caches the latest-n listing.
type FeaturedCache interface {
	GetFeatured(ctx context.Context, n int) ([]*model.Property, int64, error)
	SetFeatured(ctx context.Context, gen int64, n int, props []*model.Property, ttl time.Duration) error
	InvalidateFeatured(ctx context.Context) error
}

// PropertyService handles listing reads and owner-only mutations.
type PropertyService struct {
	store       PropertyStore
	cache       FeaturedCache
	featuredTTL time.Duration
	metrics     metrics.Recorder
	logger      *slog.Logger
	now         func() time.Time
}

// NewPropertyService creates a new PropertyService. cache may be nil.
func NewPropertyService(store PropertyStore, featured FeaturedCache, featuredTTL time.Duration, recorder metrics.Recorder, logger *slog.Logger) *PropertyService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PropertyService{
		store:       store,
		cache:       featured,
		featuredTTL: featuredTTL,
		metrics:     recorder,
		logger:      logger,
		now:         time.Now,
	}
}

// CreatePropertyInput defines input for creating a property.
type CreatePropertyInput struct {
	OwnerEmail       string
	Name             string
	ShortDescription string
	Category         string
	Price            *model.Number
	Location         string
	Image            string
}

// Create inserts a property declared as owned by input.OwnerEmail. The
// declared owner must be the verified subject.
func (s *PropertyService) Create(ctx context.Context, subject model.Identity, input CreatePropertyInput) (*model.Property, error) {
	if err := s.authorize(subject, model.Identity(input.OwnerEmail), authz.OpCreate); err != nil {
		return nil, err
	}

	var price float64
	if input.Price != nil {
		v, err := coercePrice(*input.Price)
		if err != nil {
			return nil, err
		}
		price = v
	}

	now := s.now().UTC()
	p := &model.Property{
		ID:               newID(),
		OwnerEmail:       input.OwnerEmail,
		Name:             input.Name,
		ShortDescription: input.ShortDescription,
		Category:         input.Category,
		Price:            price,
		Location:         input.Location,
		Image:            input.Image,
		InsertedAt:       now,
		UpdatedAt:        now,
	}

	if err := s.store.CreateProperty(ctx, p); err != nil {
		return nil, upstream("create property", err)
	}

	s.metrics.IncPropertyCreated()
	s.invalidateFeatured(ctx)

	return p, nil
}

// GetByID returns a single property.
func (s *PropertyService) GetByID(ctx context.Context, id string) (*model.Property, error) {
	canonical, err := parseID(id)
	if err != nil {
		return nil, err
	}

	p, err := s.store.GetPropertyByID(ctx, canonical)
	if err != nil {
		if errors.Is(err, repository.ErrPropertyNotFound) {
			return nil, ErrNotFound
		}
		return nil, upstream("get property", err)
	}
	return p, nil
}

// ListByOwner returns every property, or only owner's when owner is set.
func (s *PropertyService) ListByOwner(ctx context.Context, owner model.Identity) ([]*model.Property, error) {
	props, err := s.store.ListProperties(ctx, owner.String())
	if err != nil {
		return nil, upstream("list properties", err)
	}
	return props, nil
}

// Latest returns the n most recently inserted properties, newest first.
// A cache miss is refilled under the generation seen before the store was
// read, so rows read before a concurrent mutation never outlive it.
func (s *PropertyService) Latest(ctx context.Context, n int) ([]*model.Property, error) {
	if n <= 0 {
		return []*model.Property{}, nil
	}

	var (
		gen    int64
		refill bool
	)
	if s.cache != nil {
		props, g, err := s.cache.GetFeatured(ctx, n)
		if err == nil {
			s.metrics.IncFeaturedCacheHit()
			return props, nil
		}
		if errors.Is(err, cache.ErrCacheMiss) {
			gen, refill = g, true
		} else {
			s.logger.Warn("featured cache read failed", slog.String("error", err.Error()))
		}
		s.metrics.IncFeaturedCacheMiss()
	}

	props, err := s.store.LatestProperties(ctx, n)
	if err != nil {
		return nil, upstream("latest properties", err)
	}

	if refill {
		if err := s.cache.SetFeatured(ctx, gen, n, props, s.featuredTTL); err != nil {
			s.logger.Warn("featured cache write failed", slog.String("error", err.Error()))
		}
	}

	return props, nil
}

// Update merges patch into the property identified by id. Checks run in a
// fixed order: credential, identifier, existence, ownership, field values.
// Nothing is written unless all of them pass.
func (s *PropertyService) Update(ctx context.Context, subject model.Identity, id string, patch model.PropertyPatch) (*model.Property, error) {
	existing, err := s.loadForMutation(ctx, subject, id, authz.OpUpdate)
	if err != nil {
		return nil, err
	}

	merged, err := MergeProperty(existing, patch, s.now())
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateProperty(ctx, merged, subject.String())
	if err != nil {
		return nil, s.mutationErr("update property", err)
	}

	s.metrics.IncPropertyUpdated()
	s.invalidateFeatured(ctx)

	return updated, nil
}

// Delete removes the property identified by id. A non-empty declaredOwner
// (the body email some clients send) must match the verified subject.
func (s *PropertyService) Delete(ctx context.Context, subject model.Identity, id string, declaredOwner model.Identity) (int64, error) {
	existing, err := s.loadForMutation(ctx, subject, id, authz.OpDelete)
	if err != nil {
		return 0, err
	}

	if !declaredOwner.IsZero() {
		if err := s.authorize(subject, declaredOwner, authz.OpDelete); err != nil {
			return 0, err
		}
	}

	deleted, err := s.store.DeleteProperty(ctx, existing.ID, subject.String())
	if err != nil {
		return 0, s.mutationErr("delete property", err)
	}

	s.metrics.IncPropertyDeleted()
	s.invalidateFeatured(ctx)

	return deleted, nil
}

// loadForMutation reads the target and runs the guard against its stored
// owner. A missing credential is reported before the record is looked up.
func (s *PropertyService) loadForMutation(ctx context.Context, subject model.Identity, id string, op authz.Operation) (*model.Property, error) {
	if subject.IsZero() {
		return nil, s.authorize(subject, "", op)
	}

	canonical, err := parseID(id)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.GetPropertyByID(ctx, canonical)
	if err != nil {
		if errors.Is(err, repository.ErrPropertyNotFound) {
			return nil, ErrNotFound
		}
		return nil, upstream("load property", err)
	}

	if err := s.authorize(subject, existing.Owner(), op); err != nil {
		return nil, err
	}
	return existing, nil
}

// mutationErr maps owner-conditioned write misses. They only occur when
// the record changed between the guard and the write.
func (s *PropertyService) mutationErr(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrPropertyNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrOwnerMismatch):
		return ErrForbidden
	default:
		return upstream(op, err)
	}
}

func (s *PropertyService) authorize(subject, owner model.Identity, op authz.Operation) error {
	decision := authz.Authorize(subject, owner, op)
	if decision.Allowed {
		return nil
	}
	s.metrics.IncAuthzDenied(string(decision.Reason))
	return decision.Err()
}

func (s *PropertyService) invalidateFeatured(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFeatured(ctx); err != nil {
		s.logger.Warn("featured cache invalidation failed", slog.String("error", err.Error()))
	}
}
