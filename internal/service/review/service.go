package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/serviceloop/marketplace-api/internal/model"
	"github.com/serviceloop/marketplace-api/internal/repository"
	"github.com/serviceloop/marketplace-api/internal/service/authz"
	apperrors "github.com/serviceloop/marketplace-api/pkg/errors"
	"github.com/serviceloop/marketplace-api/pkg/metrics"
)

type Service struct {
	repo        repository.ReviewRepository
	bookingRepo repository.BookingRepository
	metrics     *metrics.Metrics
}

func NewService(repo repository.ReviewRepository, bookingRepo repository.BookingRepository, m *metrics.Metrics) *Service {
	return &Service{
		repo:        repo,
		bookingRepo: bookingRepo,
		metrics:     m,
	}
}

// Submit records a review for a completed booking and recomputes the
// provider's rating. The insert and the recompute are one transaction:
// a rating never persists without its source review.
func (s *Service) Submit(ctx context.Context, actor *model.Actor, bookingID uuid.UUID, req *model.SubmitReviewRequest) (*model.Review, error) {
	booking, err := s.bookingRepo.Get(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("booking", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get booking: %w", err))
	}

	if err := authz.CanReviewBooking(actor, booking); err != nil {
		return nil, err
	}

	if booking.Status != model.BookingStatusCompleted {
		return nil, apperrors.BusinessRule(apperrors.CodeNotCompleted,
			"only completed bookings can be reviewed")
	}

	if _, err := s.repo.GetByBookingID(ctx, bookingID); err == nil {
		return nil, apperrors.BusinessRule(apperrors.CodeAlreadyReviewed,
			"this booking has already been reviewed")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	review := buildReview(booking, req)

	event, err := model.NewReviewEvent(review)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	if err := s.repo.Create(ctx, review, event); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// A concurrent request reviewed this booking first.
			return nil, apperrors.BusinessRule(apperrors.CodeAlreadyReviewed,
				"this booking has already been reviewed")
		}
		return nil, apperrors.Internal(err)
	}

	s.metrics.ReviewsSubmitted.Inc()
	return review, nil
}

// ListForProvider returns all reviews naming the provider as ratee.
func (s *Service) ListForProvider(ctx context.Context, providerID uuid.UUID) ([]*model.Review, error) {
	reviews, err := s.repo.ListForProvider(ctx, providerID)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list reviews: %w", err))
	}
	return reviews, nil
}

// buildReview fills each omitted category score with the overall rating.
// The overall rating is what feeds the provider's aggregate.
func buildReview(booking *model.Booking, req *model.SubmitReviewRequest) *model.Review {
	scoreOr := func(v *int) int {
		if v != nil {
			return *v
		}
		return req.Rating
	}

	return &model.Review{
		BookingID:       booking.ID,
		ClientID:        booking.ClientID,
		ProviderID:      booking.ProviderID,
		Punctuality:     scoreOr(req.Punctuality),
		Quality:         scoreOr(req.Quality),
		Communication:   scoreOr(req.Communication),
		Professionalism: scoreOr(req.Professionalism),
		AverageScore:    float64(req.Rating),
		Comment:         req.Comment,
	}
}
