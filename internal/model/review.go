package model

import (
	"github.com/google/uuid"
)

// Review is tied one-to-one to a completed booking. AverageScore carries the
// overall rating the client gave and feeds the provider's rolling rating.
type Review struct {
	Base
	BookingID       uuid.UUID `json:"booking_id" db:"booking_id"`
	ClientID        uuid.UUID `json:"client_id" db:"client_id"`
	ProviderID      uuid.UUID `json:"provider_id" db:"provider_id"`
	Punctuality     int       `json:"punctuality" db:"punctuality"`
	Quality         int       `json:"quality" db:"quality"`
	Communication   int       `json:"communication" db:"communication"`
	Professionalism int       `json:"professionalism" db:"professionalism"`
	AverageScore    float64   `json:"average_score" db:"average_score"`
	Comment         string    `json:"comment" db:"comment"`
}

// ProviderRating aggregates a provider's overall scores into the rating
// stored on the provider row: the exact mean over all reviews, zero when
// the provider has none.
func ProviderRating(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

// SubmitReviewRequest represents rating parameters for a completed booking.
// Omitted category scores default to the overall rating.
type SubmitReviewRequest struct {
	Rating          int    `json:"rating" binding:"required,min=1,max=5"`
	Punctuality     *int   `json:"punctuality" binding:"omitempty,min=1,max=5"`
	Quality         *int   `json:"quality" binding:"omitempty,min=1,max=5"`
	Communication   *int   `json:"communication" binding:"omitempty,min=1,max=5"`
	Professionalism *int   `json:"professionalism" binding:"omitempty,min=1,max=5"`
	Comment         string `json:"comment" binding:"max=2000"`
}
