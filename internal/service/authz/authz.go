package authz

import (
	"github.com/serviceloop/marketplace-api/internal/model"
	"github.com/serviceloop/marketplace-api/pkg/errors"
)

// Capability checks evaluated before any mutation. Each check is a pure
// predicate over (actor, resource); a deny yields Forbidden with no partial
// side effects.

// CanMutateBooking allows only the owning client to reschedule, edit or
// cancel a booking.
func CanMutateBooking(actor *model.Actor, booking *model.Booking) error {
	if actor.ID == booking.ClientID {
		return nil
	}
	return errors.Forbidden("only the booking's client may perform this action")
}

// CanCompleteBooking allows either party to the booking to mark it complete.
func CanCompleteBooking(actor *model.Actor, booking *model.Booking) error {
	if actor.ID == booking.ClientID {
		return nil
	}
	if actor.IsProvider() && actor.ProviderID == booking.ProviderID {
		return nil
	}
	return errors.Forbidden("only a party to the booking may complete it")
}

// CanReviewBooking allows only the owning client to rate a booking.
func CanReviewBooking(actor *model.Actor, booking *model.Booking) error {
	if actor.ID == booking.ClientID {
		return nil
	}
	return errors.Forbidden("only the booking's client may submit a review")
}

// CanMutateListing requires the provider role and ownership of the listing.
// Ownership is linked through the provider profile ID, the single owning
// identity for provider-authored content.
func CanMutateListing(actor *model.Actor, listing *model.Listing) error {
	if !actor.IsProvider() || actor.ProviderID != listing.ProviderID {
		return errors.Forbidden("only the owning provider may modify this listing")
	}
	return nil
}

// CanMutateProvider allows the owning provider or an admin.
func CanMutateProvider(actor *model.Actor, provider *model.Provider) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.IsProvider() && actor.ProviderID == provider.ID {
		return nil
	}
	return errors.Forbidden("only the owning provider may modify this profile")
}

// RequireAdmin gates admin-only operations such as listing approval and
// catalog edits.
func RequireAdmin(actor *model.Actor) error {
	if actor.IsAdmin() {
		return nil
	}
	return errors.Forbidden("admin access required")
}
