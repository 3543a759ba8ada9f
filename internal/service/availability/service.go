package availability

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/serviceloop/marketplace-api/internal/model"
	"github.com/serviceloop/marketplace-api/internal/repository"
	"github.com/serviceloop/marketplace-api/pkg/errors"
)

// Provider daily working window. Open windows on a date are computed by
// subtracting existing non-cancelled bookings from this window.
const (
	DayStartHour = 8
	DayEndHour   = 18
)

type Service struct {
	providerRepo repository.ProviderRepository
	bookingRepo  repository.BookingRepository
}

func NewService(providerRepo repository.ProviderRepository, bookingRepo repository.BookingRepository) *Service {
	return &Service{
		providerRepo: providerRepo,
		bookingRepo:  bookingRepo,
	}
}

// Resolve reports whether the provider is bookable on the given calendar
// date and, when available, the open time windows for that date.
func (s *Service) Resolve(ctx context.Context, providerID uuid.UUID, date time.Time) (*model.Availability, error) {
	provider, err := s.providerRepo.Get(ctx, providerID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, errors.NotFound("provider", err)
		}
		return nil, errors.Internal(fmt.Errorf("failed to get provider: %w", err))
	}

	if !provider.AvailableDays.Contains(weekdayToken(date)) {
		return &model.Availability{Available: false}, nil
	}

	bookings, err := s.bookingRepo.ListActiveForProviderOnDate(ctx, providerID, date)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to list bookings: %w", err))
	}

	windows := subtractBookings(dayWindow(date), bookings)
	return &model.Availability{
		Available: len(windows) > 0,
		Windows:   windows,
	}, nil
}

// CheckBookable gates booking creation and reschedule: the weekday must be
// in the provider's availability set and the interval must not overlap an
// existing non-cancelled booking. Reschedules pass their own booking ID as
// exclude so the booking never conflicts with itself.
func (s *Service) CheckBookable(ctx context.Context, provider *model.Provider, start, end time.Time, exclude uuid.UUID) error {
	if !provider.AvailableDays.Contains(weekdayToken(start)) {
		return errors.BusinessRule(errors.CodeProviderUnavailable,
			fmt.Sprintf("provider does not work on %ss", weekdayToken(start)))
	}

	bookings, err := s.bookingRepo.ListActiveForProviderOnDate(ctx, provider.ID, start)
	if err != nil {
		return errors.Internal(fmt.Errorf("failed to list bookings: %w", err))
	}

	for _, b := range bookings {
		if b.ID == exclude {
			continue
		}
		if b.StartTime.Before(end) && b.EndTime.After(start) {
			return errors.BusinessRule(errors.CodeProviderUnavailable,
				"requested interval overlaps an existing booking")
		}
	}
	return nil
}

func weekdayToken(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}

func dayWindow(date time.Time) model.TimeWindow {
	return model.TimeWindow{
		Start: time.Date(date.Year(), date.Month(), date.Day(), DayStartHour, 0, 0, 0, date.Location()),
		End:   time.Date(date.Year(), date.Month(), date.Day(), DayEndHour, 0, 0, 0, date.Location()),
	}
}

// subtractBookings removes each booking interval from the working window,
// returning the remaining open windows in chronological order.
func subtractBookings(window model.TimeWindow, bookings []*model.Booking) []model.TimeWindow {
	open := []model.TimeWindow{window}

	sorted := make([]*model.Booking, len(bookings))
	copy(sorted, bookings)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})

	for _, b := range sorted {
		var next []model.TimeWindow
		for _, w := range open {
			// No intersection: keep the window as is.
			if !b.StartTime.Before(w.End) || !b.EndTime.After(w.Start) {
				next = append(next, w)
				continue
			}
			if b.StartTime.After(w.Start) {
				next = append(next, model.TimeWindow{Start: w.Start, End: b.StartTime})
			}
			if b.EndTime.Before(w.End) {
				next = append(next, model.TimeWindow{Start: b.EndTime, End: w.End})
			}
		}
		open = next
	}
	return open
}
