package listing

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
	repo repository.ListingRepository
}

func NewService(repo repository.ListingRepository) *Service {
	return &Service{repo: repo}
}

// Create submits a new listing. It starts in pending and stays invisible
// until an admin approves it.
func (s *Service) Create(ctx context.Context, actor *model.Actor, req *model.CreateListingRequest) (*model.Listing, error) {
	if !actor.IsProvider() {
		return nil, apperrors.Forbidden("only providers may create listings")
	}

	listing := &model.Listing{
		ProviderID:  actor.ProviderID,
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
		HourlyRate:  req.HourlyRate,
		Status:      model.ListingStatusPending,
	}

	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to create listing: %w", err))
	}
	return listing, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Listing, error) {
	listing, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("listing", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get listing: %w", err))
	}
	return listing, nil
}

// List scopes results by actor: admins may filter freely, providers see
// their own listings whatever the status, everyone else sees approved only.
func (s *Service) List(ctx context.Context, actor *model.Actor, providerID uuid.UUID, status model.ListingStatus) ([]*model.Listing, error) {
	switch {
	case actor.IsAdmin():
	case actor.IsProvider() && providerID == actor.ProviderID:
	default:
		status = model.ListingStatusApproved
	}

	listings, err := s.repo.List(ctx, providerID, status)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list listings: %w", err))
	}
	return listings, nil
}

// Update applies listing edits. Editing the core fields of an approved
// listing reverts it to pending for re-review.
func (s *Service) Update(ctx context.Context, actor *model.Actor, id uuid.UUID, req *model.UpdateListingRequest) (*model.Listing, error) {
	listing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := authz.CanMutateListing(actor, listing); err != nil {
		return nil, err
	}

	coreChanged := false
	if req.Title != nil && *req.Title != listing.Title {
		listing.Title = *req.Title
		coreChanged = true
	}
	if req.Description != nil && *req.Description != listing.Description {
		listing.Description = *req.Description
		coreChanged = true
	}
	if req.HourlyRate != nil {
		listing.HourlyRate = req.HourlyRate
		coreChanged = true
	}

	if coreChanged && listing.Status == model.ListingStatusApproved {
		listing.Status = model.ListingStatusPending
		listing.RejectionReason = nil
	}

	if err := s.repo.Update(ctx, listing); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("listing", err)
		}
		return nil, apperrors.Internal(err)
	}
	return listing, nil
}

// Approve marks a pending listing as approved. Admin only.
func (s *Service) Approve(ctx context.Context, actor *model.Actor, id uuid.UUID) (*model.Listing, error) {
	return s.moderate(ctx, actor, id, model.ListingStatusApproved, nil)
}

// Reject marks a pending listing as rejected with a reason. Admin only.
func (s *Service) Reject(ctx context.Context, actor *model.Actor, id uuid.UUID, reason string) (*model.Listing, error) {
	return s.moderate(ctx, actor, id, model.ListingStatusRejected, &reason)
}

func (s *Service) Delete(ctx context.Context, actor *model.Actor, id uuid.UUID) error {
	listing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := authz.CanMutateListing(actor, listing); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("listing", err)
		}
		return apperrors.Internal(err)
	}
	return nil
}

func (s *Service) moderate(ctx context.Context, actor *model.Actor, id uuid.UUID, status model.ListingStatus, reason *string) (*model.Listing, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}

	listing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if listing.Status != model.ListingStatusPending {
		return nil, apperrors.BusinessRule(apperrors.CodeInvalidTransition,
			fmt.Sprintf("cannot moderate a listing in %s status", listing.Status))
	}

	listing.Status = status
	listing.RejectionReason = reason

	if err := s.repo.Update(ctx, listing); err != nil {
		return nil, apperrors.Internal(err)
	}
	return listing, nil
}
