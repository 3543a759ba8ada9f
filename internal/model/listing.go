package model

import (
	"github.com/google/uuid"
)

type ListingStatus string

const (
	ListingStatusPending  ListingStatus = "pending"
	ListingStatusApproved ListingStatus = "approved"
	ListingStatusRejected ListingStatus = "rejected"
)

type ListingType string

const (
	ListingTypeService ListingType = "service"
	ListingTypeStaff   ListingType = "staff"
)

// Listing is a provider-authored service offering or staff profile. Listings
// require admin approval before becoming visible, and editing the core fields
// of an approved listing reverts it to pending for re-review.
type Listing struct {
	Base
	ProviderID      uuid.UUID     `json:"provider_id" db:"provider_id"`
	Type            ListingType   `json:"type" db:"type"`
	Title           string        `json:"title" db:"title"`
	Description     string        `json:"description" db:"description"`
	HourlyRate      *float64      `json:"hourly_rate" db:"hourly_rate"`
	Status          ListingStatus `json:"status" db:"status"`
	RejectionReason *string       `json:"rejection_reason" db:"rejection_reason"`
}

// CreateListingRequest represents listing creation parameters
type CreateListingRequest struct {
	Type        ListingType `json:"type" binding:"required,oneof=service staff"`
	Title       string      `json:"title" binding:"required,max=200"`
	Description string      `json:"description" binding:"max=2000"`
	HourlyRate  *float64    `json:"hourly_rate" binding:"omitempty,gt=0"`
}

// UpdateListingRequest represents listing edits. Any change to the core
// fields of an approved listing moves it back to pending.
type UpdateListingRequest struct {
	Title       *string  `json:"title" binding:"omitempty,max=200"`
	Description *string  `json:"description" binding:"omitempty,max=2000"`
	HourlyRate  *float64 `json:"hourly_rate" binding:"omitempty,gt=0"`
}

// RejectListingRequest carries the admin's rejection reason
type RejectListingRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}
