package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/serviceloop/marketplace-api/internal/model"
	"github.com/serviceloop/marketplace-api/internal/repository"
	"github.com/serviceloop/marketplace-api/internal/service/authz"
	"github.com/serviceloop/marketplace-api/internal/service/availability"
	"github.com/serviceloop/marketplace-api/internal/service/pricing"
	apperrors "github.com/serviceloop/marketplace-api/pkg/errors"
	"github.com/serviceloop/marketplace-api/pkg/metrics"
)

type Service struct {
	repo         repository.BookingRepository
	providerRepo repository.ProviderRepository
	serviceRepo  repository.ServiceRepository
	resolver     *availability.Service
	metrics      *metrics.Metrics
}

func NewService(
	repo repository.BookingRepository,
	providerRepo repository.ProviderRepository,
	serviceRepo repository.ServiceRepository,
	resolver *availability.Service,
	m *metrics.Metrics,
) *Service {
	return &Service{
		repo:         repo,
		providerRepo: providerRepo,
		serviceRepo:  serviceRepo,
		resolver:     resolver,
		metrics:      m,
	}
}

// Create books a provider for the requested interval. The price breakdown
// is stamped server side; callers never supply amounts.
func (s *Service) Create(ctx context.Context, actor *model.Actor, req *model.CreateBookingRequest, idempotencyKey string) (*model.Booking, error) {
	if idempotencyKey != "" {
		existing, err := s.repo.GetByIdempotencyKey(ctx, actor.ID, idempotencyKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Internal(err)
		}
	}

	svc, provider, err := s.resolveTarget(ctx, req.ServiceID, req.ProviderID)
	if err != nil {
		return nil, err
	}

	if err := s.validateInterval(svc, req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	if err := s.resolver.CheckBookable(ctx, provider, req.StartTime, req.EndTime, uuid.Nil); err != nil {
		return nil, err
	}

	breakdown, err := pricing.Calculate(provider.HourlyRate, req.StartTime, req.EndTime, time.Now())
	if err != nil {
		return nil, err
	}

	booking := &model.Booking{
		ClientID:            actor.ID,
		ProviderID:          provider.ID,
		ServiceID:           svc.ID,
		StartTime:           req.StartTime,
		EndTime:             req.EndTime,
		Address:             req.Address,
		AccessInstructions:  req.AccessInstructions,
		SpecialInstructions: req.SpecialInstructions,
		Status:              model.BookingStatusPending,
		PaymentStatus:       model.PaymentStatusPending,
	}
	stampPrice(booking, breakdown)
	if idempotencyKey != "" {
		booking.IdempotencyKey = &idempotencyKey
	}

	event, err := model.NewBookingEvent(model.EventBookingCreated, booking)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	if err := s.repo.Create(ctx, booking, event); err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingConflict):
			return nil, apperrors.BusinessRule(apperrors.CodeProviderUnavailable,
				"requested interval overlaps an existing booking")
		case errors.Is(err, repository.ErrDuplicate) && idempotencyKey != "":
			// Concurrent replay of the same idempotency key; the first
			// request won, return its booking.
			return s.repo.GetByIdempotencyKey(ctx, actor.ID, idempotencyKey)
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NotFound("provider", err)
		default:
			return nil, apperrors.Internal(err)
		}
	}

	s.metrics.BookingsCreated.Inc()
	return booking, nil
}

func (s *Service) Get(ctx context.Context, actor *model.Actor, id uuid.UUID) (*model.Booking, error) {
	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && actor.ID != booking.ClientID && actor.ProviderID != booking.ProviderID {
		return nil, apperrors.Forbidden("")
	}
	return booking, nil
}

// List returns bookings visible to the actor: clients see their own,
// providers see bookings naming them, admins see everything.
func (s *Service) List(ctx context.Context, actor *model.Actor, filters *model.BookingFilters) ([]*model.Booking, error) {
	if filters == nil {
		filters = &model.BookingFilters{}
	}
	switch {
	case actor.IsAdmin():
	case actor.IsProvider():
		filters.ProviderID = actor.ProviderID
		filters.ClientID = uuid.Nil
	default:
		filters.ClientID = actor.ID
		filters.ProviderID = uuid.Nil
	}

	bookings, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list bookings: %w", err))
	}
	return bookings, nil
}

// Update applies reschedule and detail edits. Allowed only while the
// booking is pending or confirmed; a changed interval re-runs the
// availability check and re-stamps the price.
func (s *Service) Update(ctx context.Context, actor *model.Actor, id uuid.UUID, req *model.UpdateBookingRequest) (*model.Booking, error) {
	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := authz.CanMutateBooking(actor, booking); err != nil {
		s.metrics.BookingTransitions.WithLabelValues("update", "forbidden").Inc()
		return nil, err
	}

	if booking.Status != model.BookingStatusPending && booking.Status != model.BookingStatusConfirmed {
		s.metrics.BookingTransitions.WithLabelValues("update", "invalid_transition").Inc()
		return nil, invalidTransition("update", booking.Status)
	}

	intervalChanged := false
	if req.StartTime != nil {
		booking.StartTime = *req.StartTime
		intervalChanged = true
	}
	if req.EndTime != nil {
		booking.EndTime = *req.EndTime
		intervalChanged = true
	}
	if req.Address != nil {
		booking.Address = *req.Address
	}
	if req.AccessInstructions != nil {
		booking.AccessInstructions = req.AccessInstructions
	}
	if req.SpecialInstructions != nil {
		booking.SpecialInstructions = req.SpecialInstructions
	}

	if intervalChanged {
		svc, provider, err := s.resolveTarget(ctx, booking.ServiceID, booking.ProviderID)
		if err != nil {
			return nil, err
		}
		if err := s.validateInterval(svc, booking.StartTime, booking.EndTime); err != nil {
			return nil, err
		}
		if err := s.resolver.CheckBookable(ctx, provider, booking.StartTime, booking.EndTime, booking.ID); err != nil {
			return nil, err
		}
		breakdown, err := pricing.Calculate(provider.HourlyRate, booking.StartTime, booking.EndTime, time.Now())
		if err != nil {
			return nil, err
		}
		stampPrice(booking, breakdown)
	}

	if err := s.persist(ctx, booking, model.EventBookingUpdated); err != nil {
		return nil, err
	}

	s.metrics.BookingTransitions.WithLabelValues("update", "ok").Inc()
	return booking, nil
}

// Cancel moves a non-terminal booking to cancelled and flags the payment
// as refunded. Terminal bookings never leave their state.
func (s *Service) Cancel(ctx context.Context, actor *model.Actor, id uuid.UUID) (*model.Booking, error) {
	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := authz.CanMutateBooking(actor, booking); err != nil {
		s.metrics.BookingTransitions.WithLabelValues("cancel", "forbidden").Inc()
		return nil, err
	}

	if booking.Status.Terminal() {
		s.metrics.BookingTransitions.WithLabelValues("cancel", "invalid_transition").Inc()
		return nil, invalidTransition("cancel", booking.Status)
	}

	booking.Status = model.BookingStatusCancelled
	booking.PaymentStatus = model.PaymentStatusRefunded

	if err := s.persist(ctx, booking, model.EventBookingCancelled); err != nil {
		return nil, err
	}

	s.metrics.BookingTransitions.WithLabelValues("cancel", "ok").Inc()
	return booking, nil
}

// Complete marks a confirmed or in-progress booking as completed. Either
// party to the booking may complete it.
func (s *Service) Complete(ctx context.Context, actor *model.Actor, id uuid.UUID) (*model.Booking, error) {
	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := authz.CanCompleteBooking(actor, booking); err != nil {
		s.metrics.BookingTransitions.WithLabelValues("complete", "forbidden").Inc()
		return nil, err
	}

	if booking.Status != model.BookingStatusConfirmed && booking.Status != model.BookingStatusInProgress {
		s.metrics.BookingTransitions.WithLabelValues("complete", "invalid_transition").Inc()
		return nil, invalidTransition("complete", booking.Status)
	}

	booking.Status = model.BookingStatusCompleted

	if err := s.persist(ctx, booking, model.EventBookingCompleted); err != nil {
		return nil, err
	}

	s.metrics.BookingTransitions.WithLabelValues("complete", "ok").Inc()
	return booking, nil
}

// Delete physically removes a booking record. Peripheral CRUD: lifecycle
// cancellation never deletes, so only already-cancelled bookings qualify.
func (s *Service) Delete(ctx context.Context, actor *model.Actor, id uuid.UUID) error {
	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return err
	}

	if err := authz.CanMutateBooking(actor, booking); err != nil {
		return err
	}

	if booking.Status != model.BookingStatusCancelled {
		return apperrors.BusinessRule(apperrors.CodeInvalidTransition,
			"only cancelled bookings can be deleted")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func (s *Service) getBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	booking, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("booking", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get booking: %w", err))
	}
	return booking, nil
}

func (s *Service) resolveTarget(ctx context.Context, serviceID, providerID uuid.UUID) (*model.Service, *model.Provider, error) {
	svc, err := s.serviceRepo.Get(ctx, serviceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, apperrors.NotFound("service", err)
		}
		return nil, nil, apperrors.Internal(err)
	}

	provider, err := s.providerRepo.Get(ctx, providerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, apperrors.NotFound("provider", err)
		}
		return nil, nil, apperrors.Internal(err)
	}

	if provider.Status != model.ProviderStatusActive {
		return nil, nil, apperrors.BusinessRule(apperrors.CodeProviderUnavailable, "provider is not active")
	}
	if provider.ServiceID != svc.ID {
		return nil, nil, apperrors.Validation("provider_id", "provider does not offer this service")
	}
	return svc, provider, nil
}

func (s *Service) validateInterval(svc *model.Service, start, end time.Time) error {
	if !end.After(start) {
		return apperrors.BusinessRule(apperrors.CodeInvalidInterval, "end time must be after start time")
	}

	hours := end.Sub(start).Hours()
	if hours < svc.MinDurationHours {
		return apperrors.Validation("end_time",
			fmt.Sprintf("booking must be at least %.1f hours", svc.MinDurationHours))
	}
	if hours > svc.MaxDurationHours {
		return apperrors.Validation("end_time",
			fmt.Sprintf("booking cannot exceed %.1f hours", svc.MaxDurationHours))
	}
	return nil
}

func (s *Service) persist(ctx context.Context, booking *model.Booking, eventType string) error {
	event, err := model.NewBookingEvent(eventType, booking)
	if err != nil {
		return apperrors.Internal(err)
	}
	if err := s.repo.Update(ctx, booking, event); err != nil {
		if errors.Is(err, repository.ErrBookingConflict) {
			return apperrors.BusinessRule(apperrors.CodeProviderUnavailable,
				"requested interval overlaps an existing booking")
		}
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("booking", err)
		}
		return apperrors.Internal(err)
	}
	return nil
}

func stampPrice(booking *model.Booking, breakdown pricing.Breakdown) {
	rounded := breakdown.Rounded()
	booking.BaseAmount = rounded.BaseAmount
	booking.Premium = rounded.Premium
	booking.Discount = rounded.Discount
	booking.FinalAmount = rounded.FinalAmount
	booking.Commission = rounded.Commission
}

func invalidTransition(action string, from model.BookingStatus) error {
	return apperrors.BusinessRule(apperrors.CodeInvalidTransition,
		fmt.Sprintf("cannot %s a booking in %s status", action, from))
}
