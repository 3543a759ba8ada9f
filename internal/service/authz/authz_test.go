package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/serviceloop/marketplace-api/internal/model"
	"github.com/serviceloop/marketplace-api/pkg/errors"
)

func TestCanMutateBooking(t *testing.T) {
	owner := uuid.New()
	booking := &model.Booking{ClientID: owner}

	assert.NoError(t, CanMutateBooking(&model.Actor{ID: owner, Role: model.RoleClient}, booking))

	err := CanMutateBooking(&model.Actor{ID: uuid.New(), Role: model.RoleClient}, booking)
	assert.True(t, errors.IsKind(err, errors.KindForbidden))
}

func TestCanCompleteBooking(t *testing.T) {
	client := uuid.New()
	providerProfile := uuid.New()
	booking := &model.Booking{ClientID: client, ProviderID: providerProfile}

	assert.NoError(t, CanCompleteBooking(&model.Actor{ID: client, Role: model.RoleClient}, booking))
	assert.NoError(t, CanCompleteBooking(&model.Actor{
		ID:         uuid.New(),
		Role:       model.RoleProvider,
		ProviderID: providerProfile,
	}, booking))

	err := CanCompleteBooking(&model.Actor{
		ID:         uuid.New(),
		Role:       model.RoleProvider,
		ProviderID: uuid.New(),
	}, booking)
	assert.True(t, errors.IsKind(err, errors.KindForbidden))
}

func TestCanMutateListing(t *testing.T) {
	providerProfile := uuid.New()
	listing := &model.Listing{ProviderID: providerProfile}

	assert.NoError(t, CanMutateListing(&model.Actor{
		ID:         uuid.New(),
		Role:       model.RoleProvider,
		ProviderID: providerProfile,
	}, listing))

	// A client can never mutate a listing, even with a matching ID.
	err := CanMutateListing(&model.Actor{
		ID:   uuid.New(),
		Role: model.RoleClient,
	}, listing)
	assert.True(t, errors.IsKind(err, errors.KindForbidden))

	err = CanMutateListing(&model.Actor{
		ID:         uuid.New(),
		Role:       model.RoleProvider,
		ProviderID: uuid.New(),
	}, listing)
	assert.True(t, errors.IsKind(err, errors.KindForbidden))
}

func TestRequireAdmin(t *testing.T) {
	assert.NoError(t, RequireAdmin(&model.Actor{Role: model.RoleAdmin}))
	assert.Error(t, RequireAdmin(&model.Actor{Role: model.RoleProvider}))
	assert.Error(t, RequireAdmin(&model.Actor{Role: model.RoleClient}))
}
