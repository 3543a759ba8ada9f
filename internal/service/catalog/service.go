package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/serviceloop/marketplace-api/internal/model"
	"github.com/serviceloop/marketplace-api/internal/repository"
	"github.com/serviceloop/marketplace-api/internal/service/authz"
	"github.com/serviceloop/marketplace-api/internal/service/pricing"
	apperrors "github.com/serviceloop/marketplace-api/pkg/errors"
	"github.com/serviceloop/marketplace-api/pkg/metrics"
)

const (
	cacheTTL     = 5 * time.Minute
	cacheCleanup = 15 * time.Minute
	listCacheKey = "services:all"
)

// Service manages the service catalog. Entries change rarely and are read
// on every booking, so lookups go through a small in-process cache.
type Service struct {
	repo    repository.ServiceRepository
	cache   *cache.Cache
	metrics *metrics.Metrics
}

func NewService(repo repository.ServiceRepository, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		cache:   cache.New(cacheTTL, cacheCleanup),
		metrics: m,
	}
}

// Get returns the catalog entry. Cache hits hand out a copy so callers can
// never mutate the cached value through the returned pointer.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	if cached, ok := s.cache.Get(id.String()); ok {
		return copyService(cached.(*model.Service)), nil
	}

	svc, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.SetDefault(id.String(), copyService(svc))
	return svc, nil
}

func (s *Service) List(ctx context.Context) ([]*model.Service, error) {
	if cached, ok := s.cache.Get(listCacheKey); ok {
		return copyServices(cached.([]*model.Service)), nil
	}

	services, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list services: %w", err))
	}

	s.cache.SetDefault(listCacheKey, copyServices(services))
	return services, nil
}

// Quote previews the price for an interval against the catalog base rate.
// No booking is created.
func (s *Service) Quote(ctx context.Context, serviceID uuid.UUID, start, end time.Time) (pricing.Breakdown, error) {
	svc, err := s.Get(ctx, serviceID)
	if err != nil {
		return pricing.Breakdown{}, err
	}

	breakdown, err := pricing.Calculate(svc.BaseHourlyRate, start, end, time.Now())
	if err != nil {
		return pricing.Breakdown{}, err
	}

	s.metrics.BookingPriceQuoted.Inc()
	return breakdown.Rounded(), nil
}

// Create adds a catalog entry. Admin only.
func (s *Service) Create(ctx context.Context, actor *model.Actor, req *model.CreateServiceRequest) (*model.Service, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}

	svc := &model.Service{
		Name:             req.Name,
		Description:      req.Description,
		BaseHourlyRate:   req.BaseHourlyRate,
		Requirements:     req.Requirements,
		AvailableDays:    model.WeekdaySet(req.AvailableDays),
		MinDurationHours: req.MinDurationHours,
		MaxDurationHours: req.MaxDurationHours,
		Status:           model.ServiceStatusActive,
	}

	if err := s.repo.Create(ctx, svc); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to create service: %w", err))
	}

	s.invalidate(svc.ID)
	return svc, nil
}

// Update applies an administrative catalog edit.
func (s *Service) Update(ctx context.Context, actor *model.Actor, id uuid.UUID, req *model.UpdateServiceRequest) (*model.Service, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}

	// Work on a fresh row, never the cached entry: a rejected edit must
	// leave both the store and the cache exactly as they were.
	svc, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		svc.Name = *req.Name
	}
	if req.Description != nil {
		svc.Description = *req.Description
	}
	if req.BaseHourlyRate != nil {
		svc.BaseHourlyRate = *req.BaseHourlyRate
	}
	if req.Requirements != nil {
		svc.Requirements = req.Requirements
	}
	if req.AvailableDays != nil {
		svc.AvailableDays = model.WeekdaySet(req.AvailableDays)
	}
	if req.MinDurationHours != nil {
		svc.MinDurationHours = *req.MinDurationHours
	}
	if req.MaxDurationHours != nil {
		svc.MaxDurationHours = *req.MaxDurationHours
	}
	if req.Status != nil {
		svc.Status = *req.Status
	}

	if svc.MaxDurationHours < svc.MinDurationHours {
		return nil, apperrors.Validation("max_duration_hours",
			"max duration must not be below min duration")
	}

	if err := s.repo.Update(ctx, svc); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("service", err)
		}
		return nil, apperrors.Internal(err)
	}

	s.invalidate(id)
	return svc, nil
}

// Delete removes a catalog entry. Admin only.
func (s *Service) Delete(ctx context.Context, actor *model.Actor, id uuid.UUID) error {
	if err := authz.RequireAdmin(actor); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("service", err)
		}
		return apperrors.Internal(err)
	}

	s.invalidate(id)
	return nil
}

func (s *Service) fetch(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	svc, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("service", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get service: %w", err))
	}
	return svc, nil
}

func (s *Service) invalidate(id uuid.UUID) {
	s.cache.Delete(id.String())
	s.cache.Delete(listCacheKey)
}

func copyService(svc *model.Service) *model.Service {
	cp := *svc
	if svc.Requirements != nil {
		cp.Requirements = make(model.JSONMap, len(svc.Requirements))
		for k, v := range svc.Requirements {
			cp.Requirements[k] = v
		}
	}
	if svc.AvailableDays != nil {
		cp.AvailableDays = append(model.WeekdaySet(nil), svc.AvailableDays...)
	}
	return &cp
}

func copyServices(services []*model.Service) []*model.Service {
	out := make([]*model.Service, len(services))
	for i, svc := range services {
		out[i] = copyService(svc)
	}
	return out
}
