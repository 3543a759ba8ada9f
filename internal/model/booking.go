package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

// Terminal reports whether no further status transitions are allowed.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Booking is a scheduled, priced engagement between a client and a provider.
// The price breakdown is owned by the booking and always computed server side.
type Booking struct {
	Base
	ClientID            uuid.UUID     `json:"client_id" db:"client_id"`
	ProviderID          uuid.UUID     `json:"provider_id" db:"provider_id"`
	ServiceID           uuid.UUID     `json:"service_id" db:"service_id"`
	StartTime           time.Time     `json:"start_time" db:"start_time"`
	EndTime             time.Time     `json:"end_time" db:"end_time"`
	Address             string        `json:"address" db:"address"`
	AccessInstructions  *string       `json:"access_instructions" db:"access_instructions"`
	SpecialInstructions *string       `json:"special_instructions" db:"special_instructions"`
	BaseAmount          float64       `json:"base_amount" db:"base_amount"`
	Premium             float64       `json:"premium" db:"premium"`
	Discount            float64       `json:"discount" db:"discount"`
	FinalAmount         float64       `json:"final_amount" db:"final_amount"`
	Commission          float64       `json:"commission" db:"commission"`
	Status              BookingStatus `json:"status" db:"status"`
	PaymentStatus       PaymentStatus `json:"payment_status" db:"payment_status"`
	IdempotencyKey      *string       `json:"-" db:"idempotency_key"`
}

// CreateBookingRequest represents booking creation parameters. Price fields
// are never accepted from the caller.
type CreateBookingRequest struct {
	ProviderID          uuid.UUID `json:"provider_id" binding:"required"`
	ServiceID           uuid.UUID `json:"service_id" binding:"required"`
	StartTime           time.Time `json:"start_time" binding:"required"`
	EndTime             time.Time `json:"end_time" binding:"required,gtfield=StartTime"`
	Address             string    `json:"address" binding:"required"`
	AccessInstructions  *string   `json:"access_instructions"`
	SpecialInstructions *string   `json:"special_instructions" binding:"omitempty,max=2000"`
}

// UpdateBookingRequest represents reschedule and detail edits
type UpdateBookingRequest struct {
	StartTime           *time.Time `json:"start_time"`
	EndTime             *time.Time `json:"end_time"`
	Address             *string    `json:"address"`
	AccessInstructions  *string    `json:"access_instructions"`
	SpecialInstructions *string    `json:"special_instructions" binding:"omitempty,max=2000"`
}

// BookingFilters represents booking search parameters
type BookingFilters struct {
	ClientID   uuid.UUID
	ProviderID uuid.UUID
	ServiceID  uuid.UUID
	Status     BookingStatus
	StartDate  time.Time
	EndDate    time.Time
}

// TimeWindow is an open interval of bookable time on a given date.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Availability is the resolver result for a provider and date.
type Availability struct {
	Available bool         `json:"available"`
	Windows   []TimeWindow `json:"windows"`
}
