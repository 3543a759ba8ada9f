package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/serviceloop/marketplace-api/internal/model"
	"github.com/serviceloop/marketplace-api/internal/repository"
	"github.com/serviceloop/marketplace-api/internal/service/authz"
	apperrors "github.com/serviceloop/marketplace-api/pkg/errors"
)

type Service struct {
	repo repository.ProviderRepository
}

func NewService(repo repository.ProviderRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Provider, error) {
	provider, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("provider", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get provider: %w", err))
	}
	return provider, nil
}

func (s *Service) List(ctx context.Context, filters *model.ProviderFilters) ([]*model.Provider, error) {
	providers, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list providers: %w", err))
	}
	return providers, nil
}

// Update applies profile edits. Rating is not an input here: it belongs to
// the review aggregator.
func (s *Service) Update(ctx context.Context, actor *model.Actor, id uuid.UUID, req *model.UpdateProviderRequest) (*model.Provider, error) {
	provider, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := authz.CanMutateProvider(actor, provider); err != nil {
		return nil, err
	}

	if req.HourlyRate != nil {
		provider.HourlyRate = *req.HourlyRate
	}
	if req.AvailableDays != nil {
		provider.AvailableDays = model.WeekdaySet(req.AvailableDays)
	}
	if req.Bio != nil {
		provider.Bio = *req.Bio
	}
	if req.Status != nil {
		provider.Status = *req.Status
	}

	if err := s.repo.Update(ctx, provider); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("provider", err)
		}
		return nil, apperrors.Internal(err)
	}
	return provider, nil
}
