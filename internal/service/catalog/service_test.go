package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serviceloop/marketplace-api/internal/model"
	"github.com/serviceloop/marketplace-api/internal/repository"
	apperrors "github.com/serviceloop/marketplace-api/pkg/errors"
	"github.com/serviceloop/marketplace-api/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("catalog_test", "svc")

type fakeServiceRepo struct {
	services map[uuid.UUID]*model.Service
}

func newFakeServiceRepo() *fakeServiceRepo {
	return &fakeServiceRepo{services: make(map[uuid.UUID]*model.Service)}
}

func (r *fakeServiceRepo) Create(_ context.Context, svc *model.Service) error {
	svc.ID = uuid.New()
	copied := *svc
	r.services[svc.ID] = &copied
	return nil
}

func (r *fakeServiceRepo) Get(_ context.Context, id uuid.UUID) (*model.Service, error) {
	svc, ok := r.services[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *svc
	return &copied, nil
}

func (r *fakeServiceRepo) Update(_ context.Context, svc *model.Service) error {
	if _, ok := r.services[svc.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *svc
	r.services[svc.ID] = &copied
	return nil
}

func (r *fakeServiceRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.services[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.services, id)
	return nil
}

func (r *fakeServiceRepo) List(_ context.Context) ([]*model.Service, error) {
	out := make([]*model.Service, 0, len(r.services))
	for _, svc := range r.services {
		copied := *svc
		out = append(out, &copied)
	}
	return out, nil
}

var catalogAdmin = &model.Actor{ID: uuid.New(), Role: model.RoleAdmin}

func newCatalogFixture(t *testing.T) (*Service, *fakeServiceRepo, uuid.UUID) {
	t.Helper()
	repo := newFakeServiceRepo()
	seed := &model.Service{
		Name:             "Gardener",
		BaseHourlyRate:   40.00,
		AvailableDays:    model.WeekdaySet{"monday", "tuesday", "wednesday"},
		MinDurationHours: 1,
		MaxDurationHours: 8,
		Status:           model.ServiceStatusActive,
	}
	require.NoError(t, repo.Create(context.Background(), seed))
	return NewService(repo, testMetrics), repo, seed.ID
}

func TestRejectedUpdateLeavesCatalogUntouched(t *testing.T) {
	svc, _, id := newCatalogFixture(t)
	ctx := context.Background()

	// Prime the cache before the failing edit.
	cached, err := svc.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Gardener", cached.Name)

	name := "Poisoned"
	badMax := 0.5
	_, err = svc.Update(ctx, catalogAdmin, id, &model.UpdateServiceRequest{
		Name:             &name,
		MaxDurationHours: &badMax,
	})
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindValidation, appErr.Kind)

	// The rejected edit must not be visible through any read path.
	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Gardener", got.Name)
	assert.Equal(t, 8.0, got.MaxDurationHours)

	start := time.Date(2025, 7, 14, 9, 0, 0, 0, time.UTC)
	quote, err := svc.Quote(ctx, id, start, start.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 80.00, quote.BaseAmount)
}

func TestGetReturnsIndependentCopy(t *testing.T) {
	svc, _, id := newCatalogFixture(t)
	ctx := context.Background()

	first, err := svc.Get(ctx, id)
	require.NoError(t, err)
	first.Name = "mutated"
	first.BaseHourlyRate = 1

	second, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Gardener", second.Name)
	assert.Equal(t, 40.00, second.BaseHourlyRate)
}

func TestListReturnsIndependentCopies(t *testing.T) {
	svc, _, id := newCatalogFixture(t)
	ctx := context.Background()

	listed, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	listed[0].Name = "mutated"

	again, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, "Gardener", again[0].Name)

	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Gardener", got.Name)
}

func TestUpdatePersistsAndRefreshesCache(t *testing.T) {
	svc, repo, id := newCatalogFixture(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, id)
	require.NoError(t, err)

	rate := 55.00
	updated, err := svc.Update(ctx, catalogAdmin, id, &model.UpdateServiceRequest{
		BaseHourlyRate: &rate,
	})
	require.NoError(t, err)
	assert.Equal(t, 55.00, updated.BaseHourlyRate)
	assert.Equal(t, 55.00, repo.services[id].BaseHourlyRate)

	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 55.00, got.BaseHourlyRate)
}

func TestCatalogMutationsRequireAdmin(t *testing.T) {
	svc, _, id := newCatalogFixture(t)
	ctx := context.Background()
	client := &model.Actor{ID: uuid.New(), Role: model.RoleClient}

	name := "renamed"
	_, err := svc.Update(ctx, client, id, &model.UpdateServiceRequest{Name: &name})
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindForbidden, appErr.Kind)

	require.Error(t, svc.Delete(ctx, client, id))
}
