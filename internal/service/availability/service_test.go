package availability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serviceloop/marketplace-api/internal/model"
	"github.com/serviceloop/marketplace-api/internal/repository"
	"github.com/serviceloop/marketplace-api/pkg/errors"
)

type fakeProviderRepo struct {
	provider *model.Provider
}

func (r *fakeProviderRepo) Get(_ context.Context, id uuid.UUID) (*model.Provider, error) {
	if r.provider != nil && r.provider.ID == id {
		return r.provider, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeProviderRepo) GetByUserID(context.Context, uuid.UUID) (*model.Provider, error) {
	return nil, repository.ErrNotFound
}

func (r *fakeProviderRepo) Update(context.Context, *model.Provider) error { return nil }

func (r *fakeProviderRepo) List(context.Context, *model.ProviderFilters) ([]*model.Provider, error) {
	return nil, nil
}

type fakeBookingRepo struct {
	bookings []*model.Booking
}

func (r *fakeBookingRepo) Create(context.Context, *model.Booking, *model.OutboxEvent) error {
	return nil
}
func (r *fakeBookingRepo) Get(context.Context, uuid.UUID) (*model.Booking, error) {
	return nil, repository.ErrNotFound
}
func (r *fakeBookingRepo) GetByIdempotencyKey(context.Context, uuid.UUID, string) (*model.Booking, error) {
	return nil, repository.ErrNotFound
}
func (r *fakeBookingRepo) Update(context.Context, *model.Booking, *model.OutboxEvent) error {
	return nil
}
func (r *fakeBookingRepo) Delete(context.Context, uuid.UUID) error { return nil }
func (r *fakeBookingRepo) List(context.Context, *model.BookingFilters) ([]*model.Booking, error) {
	return nil, nil
}

func (r *fakeBookingRepo) ListActiveForProviderOnDate(context.Context, uuid.UUID, time.Time) ([]*model.Booking, error) {
	return r.bookings, nil
}

// 2025-07-14 is a Monday.
var monday = time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)

func at(hour int) time.Time {
	return monday.Add(time.Duration(hour) * time.Hour)
}

func newResolver(days model.WeekdaySet, bookings ...*model.Booking) (*Service, *model.Provider) {
	provider := &model.Provider{
		Base:          model.Base{ID: uuid.New()},
		AvailableDays: days,
		Status:        model.ProviderStatusActive,
	}
	return NewService(
		&fakeProviderRepo{provider: provider},
		&fakeBookingRepo{bookings: bookings},
	), provider
}

func TestResolveWeekdayGate(t *testing.T) {
	svc, provider := newResolver(model.WeekdaySet{"tuesday", "wednesday"})

	avail, err := svc.Resolve(context.Background(), provider.ID, monday)
	require.NoError(t, err)
	assert.False(t, avail.Available)
	assert.Empty(t, avail.Windows)
}

func TestResolveOpenDay(t *testing.T) {
	svc, provider := newResolver(model.WeekdaySet{"monday"})

	avail, err := svc.Resolve(context.Background(), provider.ID, monday)
	require.NoError(t, err)
	assert.True(t, avail.Available)
	require.Len(t, avail.Windows, 1)
	assert.Equal(t, at(DayStartHour), avail.Windows[0].Start)
	assert.Equal(t, at(DayEndHour), avail.Windows[0].End)
}

func TestResolveSubtractsBookings(t *testing.T) {
	svc, provider := newResolver(model.WeekdaySet{"monday"},
		&model.Booking{StartTime: at(10), EndTime: at(12)},
		&model.Booking{StartTime: at(15), EndTime: at(16)},
	)

	avail, err := svc.Resolve(context.Background(), provider.ID, monday)
	require.NoError(t, err)
	assert.True(t, avail.Available)
	require.Len(t, avail.Windows, 3)
	assert.Equal(t, model.TimeWindow{Start: at(8), End: at(10)}, avail.Windows[0])
	assert.Equal(t, model.TimeWindow{Start: at(12), End: at(15)}, avail.Windows[1])
	assert.Equal(t, model.TimeWindow{Start: at(16), End: at(18)}, avail.Windows[2])
}

func TestResolveFullyBookedDay(t *testing.T) {
	svc, provider := newResolver(model.WeekdaySet{"monday"},
		&model.Booking{StartTime: at(8), EndTime: at(18)},
	)

	avail, err := svc.Resolve(context.Background(), provider.ID, monday)
	require.NoError(t, err)
	assert.False(t, avail.Available)
	assert.Empty(t, avail.Windows)
}

func TestResolveUnknownProvider(t *testing.T) {
	svc, _ := newResolver(model.WeekdaySet{"monday"})

	_, err := svc.Resolve(context.Background(), uuid.New(), monday)
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
}

func TestCheckBookable(t *testing.T) {
	svc, provider := newResolver(model.WeekdaySet{"monday"},
		&model.Booking{Base: model.Base{ID: uuid.New()}, StartTime: at(10), EndTime: at(12)},
	)

	assert.NoError(t, svc.CheckBookable(context.Background(), provider, at(13), at(15), uuid.Nil))

	err := svc.CheckBookable(context.Background(), provider, at(11), at(13), uuid.Nil)
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeProviderUnavailable, appErr.Code)
}

func TestCheckBookableExcludesOwnBooking(t *testing.T) {
	id := uuid.New()
	svc, provider := newResolver(model.WeekdaySet{"monday"},
		&model.Booking{Base: model.Base{ID: id}, StartTime: at(10), EndTime: at(12)},
	)

	// A reschedule overlapping only itself is allowed.
	assert.NoError(t, svc.CheckBookable(context.Background(), provider, at(11), at(13), id))
}
