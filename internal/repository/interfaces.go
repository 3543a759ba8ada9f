package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/serviceloop/marketplace-api/internal/model"
)

// Sentinel errors mapped to API errors at the service layer.
var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicate       = errors.New("duplicate record")
	ErrBookingConflict = errors.New("booking interval conflicts with an existing booking")
)

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		// CreateProviderAccount creates the user and its provider profile in
		// one transaction; neither row survives a partial failure.
		CreateProviderAccount(ctx context.Context, user *model.User, provider *model.Provider) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
	}

	ProviderRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Provider, error)
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Provider, error)
		Update(ctx context.Context, provider *model.Provider) error
		List(ctx context.Context, filters *model.ProviderFilters) ([]*model.Provider, error)
	}

	ServiceRepository interface {
		Create(ctx context.Context, service *model.Service) error
		Get(ctx context.Context, id uuid.UUID) (*model.Service, error)
		Update(ctx context.Context, service *model.Service) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Service, error)
	}

	BookingRepository interface {
		// Create inserts the booking and its outbox event in one transaction.
		// The provider row is locked first and the interval is re-checked for
		// overlap inside the transaction; ErrBookingConflict is returned when
		// a concurrent booking won the slot.
		Create(ctx context.Context, booking *model.Booking, event *model.OutboxEvent) error
		Get(ctx context.Context, id uuid.UUID) (*model.Booking, error)
		GetByIdempotencyKey(ctx context.Context, clientID uuid.UUID, key string) (*model.Booking, error)
		// Update persists booking mutations together with their outbox event.
		// A changed interval is re-checked for overlap under the provider lock.
		Update(ctx context.Context, booking *model.Booking, event *model.OutboxEvent) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.BookingFilters) ([]*model.Booking, error)
		// ListActiveForProviderOnDate returns non-cancelled bookings whose
		// interval touches the given calendar date.
		ListActiveForProviderOnDate(ctx context.Context, providerID uuid.UUID, date time.Time) ([]*model.Booking, error)
	}

	ReviewRepository interface {
		// Create inserts the review, recomputes the provider's rating as the
		// mean over all of the provider's reviews, and records the outbox
		// event, all in one transaction.
		Create(ctx context.Context, review *model.Review, event *model.OutboxEvent) error
		GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Review, error)
		ListForProvider(ctx context.Context, providerID uuid.UUID) ([]*model.Review, error)
	}

	ListingRepository interface {
		Create(ctx context.Context, listing *model.Listing) error
		Get(ctx context.Context, id uuid.UUID) (*model.Listing, error)
		Update(ctx context.Context, listing *model.Listing) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, providerID uuid.UUID, status model.ListingStatus) ([]*model.Listing, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
