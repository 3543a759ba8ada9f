package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/serviceloop/marketplace-api/internal/email"
	"github.com/serviceloop/marketplace-api/internal/model"
	"github.com/serviceloop/marketplace-api/internal/repository"
	"github.com/serviceloop/marketplace-api/pkg/logger"
	"github.com/serviceloop/marketplace-api/pkg/messaging"
)

// Notifier consumes drained outbox events from the broker and turns them
// into emails. Delivery failures are logged and the message is dropped;
// notifications are best effort by contract.
type Notifier struct {
	broker       messaging.Broker
	userRepo     repository.UserRepository
	providerRepo repository.ProviderRepository
	emails       email.Service
	logger       *logger.Logger
}

func New(
	broker messaging.Broker,
	userRepo repository.UserRepository,
	providerRepo repository.ProviderRepository,
	emails email.Service,
	log *logger.Logger,
) *Notifier {
	return &Notifier{
		broker:       broker,
		userRepo:     userRepo,
		providerRepo: providerRepo,
		emails:       emails,
		logger:       log,
	}
}

// Start subscribes to every notification channel and consumes until the
// context is cancelled.
func (n *Notifier) Start(ctx context.Context) error {
	channels := []string{
		model.EventBookingCreated,
		model.EventBookingCancelled,
		model.EventBookingCompleted,
		model.EventReviewSubmitted,
	}

	for _, channel := range channels {
		msgs, err := n.broker.Subscribe(ctx, channel)
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
		}
		go n.consume(ctx, channel, msgs)
	}

	n.logger.Info("Notifier started", "channels", len(channels))
	return nil
}

func (n *Notifier) consume(ctx context.Context, channel string, msgs <-chan []byte) {
	for msg := range msgs {
		if err := n.handle(ctx, channel, msg); err != nil {
			n.logger.Error(err, "Failed to handle notification", "channel", channel)
		}
	}
}

func (n *Notifier) handle(ctx context.Context, channel string, payload []byte) error {
	if channel == model.EventReviewSubmitted {
		var review model.Review
		if err := json.Unmarshal(payload, &review); err != nil {
			return fmt.Errorf("failed to decode review payload: %w", err)
		}
		return n.notifyReview(ctx, &review)
	}

	var booking model.Booking
	if err := json.Unmarshal(payload, &booking); err != nil {
		return fmt.Errorf("failed to decode booking payload: %w", err)
	}
	return n.notifyBooking(ctx, channel, &booking)
}

func (n *Notifier) notifyBooking(ctx context.Context, channel string, booking *model.Booking) error {
	client, err := n.userRepo.Get(ctx, booking.ClientID)
	if err != nil {
		return fmt.Errorf("failed to look up booking client: %w", err)
	}

	ref := booking.ID.String()
	switch channel {
	case model.EventBookingCreated:
		return n.emails.SendBookingConfirmation(ctx, client.Email, ref)
	case model.EventBookingCancelled:
		body := fmt.Sprintf("Your booking %s has been cancelled. Any captured payment will be refunded.", ref)
		return n.emails.SendCustom(ctx, client.Email, "Booking cancelled", body)
	case model.EventBookingCompleted:
		body := fmt.Sprintf("Your booking %s is complete. You can now rate the provider.", ref)
		return n.emails.SendCustom(ctx, client.Email, "Booking completed", body)
	}
	return nil
}

func (n *Notifier) notifyReview(ctx context.Context, review *model.Review) error {
	provider, err := n.providerRepo.Get(ctx, review.ProviderID)
	if err != nil {
		return fmt.Errorf("failed to look up reviewed provider: %w", err)
	}
	user, err := n.userRepo.Get(ctx, provider.UserID)
	if err != nil {
		return fmt.Errorf("failed to look up provider user: %w", err)
	}

	body := fmt.Sprintf("You received a new %.0f-star review.", review.AverageScore)
	return n.emails.SendCustom(ctx, user.Email, "New review", body)
}
