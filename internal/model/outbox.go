package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusProcessed OutboxStatus = "processed"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// Booking lifecycle event types published through the outbox.
const (
	EventBookingCreated   = "booking.created"
	EventBookingUpdated   = "booking.updated"
	EventBookingCancelled = "booking.cancelled"
	EventBookingCompleted = "booking.completed"
	EventReviewSubmitted  = "review.submitted"
)

// OutboxEvent is written in the same transaction as the domain mutation it
// describes and drained to the message broker by the worker. Notification
// delivery never blocks or fails the primary operation.
type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// NewBookingEvent builds an outbox event for a booking lifecycle change.
func NewBookingEvent(eventType string, booking *Booking) (*OutboxEvent, error) {
	payload, err := json.Marshal(booking)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   payload,
		Status:    OutboxStatusPending,
	}, nil
}

// NewReviewEvent builds the outbox event announcing a submitted review.
func NewReviewEvent(review *Review) (*OutboxEvent, error) {
	payload, err := json.Marshal(review)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		ID:        uuid.New(),
		EventType: EventReviewSubmitted,
		Payload:   payload,
		Status:    OutboxStatusPending,
	}, nil
}
