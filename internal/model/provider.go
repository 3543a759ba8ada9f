package model

import (
	"github.com/google/uuid"
)

// Provider status constants
const (
	ProviderStatusActive   = "active"
	ProviderStatusInactive = "inactive"
)

// Provider is a service provider's public profile. Rating is derived from
// reviews and never directly settable.
type Provider struct {
	Base
	UserID        uuid.UUID  `json:"user_id" db:"user_id"`
	ServiceID     uuid.UUID  `json:"service_id" db:"service_id"`
	HourlyRate    float64    `json:"hourly_rate" db:"hourly_rate"`
	Rating        float64    `json:"rating" db:"rating"`
	AvailableDays WeekdaySet `json:"available_days" db:"available_days"`
	Bio           string     `json:"bio" db:"bio"`
	Status        string     `json:"status" db:"status"`
}

// CreateProviderRequest represents provider profile creation parameters
type CreateProviderRequest struct {
	ServiceID     uuid.UUID `json:"service_id" binding:"required"`
	HourlyRate    float64   `json:"hourly_rate" binding:"required,gt=0"`
	AvailableDays []string  `json:"available_days" binding:"required,min=1,dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	Bio           string    `json:"bio" binding:"max=2000"`
}

// UpdateProviderRequest represents provider profile edits. Rating is absent
// on purpose.
type UpdateProviderRequest struct {
	HourlyRate    *float64 `json:"hourly_rate" binding:"omitempty,gt=0"`
	AvailableDays []string `json:"available_days" binding:"omitempty,min=1,dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	Bio           *string  `json:"bio" binding:"omitempty,max=2000"`
	Status        *string  `json:"status" binding:"omitempty,oneof=active inactive"`
}

// ProviderFilters represents provider search parameters
type ProviderFilters struct {
	ServiceID uuid.UUID
	Status    string
	MinRating float64
}
