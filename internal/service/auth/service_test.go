package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serviceloop/marketplace-api/internal/model"
	"github.com/serviceloop/marketplace-api/internal/repository"
	"github.com/serviceloop/marketplace-api/pkg/auth"
	"github.com/serviceloop/marketplace-api/pkg/errors"
	"github.com/serviceloop/marketplace-api/pkg/logger"
	"github.com/serviceloop/marketplace-api/pkg/security"
)

type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*model.User
	providers map[uuid.UUID]*model.Provider
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:     make(map[uuid.UUID]*model.User),
		providers: make(map[uuid.UUID]*model.Provider),
	}
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	user.ID = uuid.New()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) CreateProviderAccount(ctx context.Context, user *model.User, provider *model.Provider) error {
	if err := r.Create(ctx, user); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	provider.ID = uuid.New()
	provider.UserID = user.ID
	r.providers[provider.ID] = provider
	return nil
}

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	r.users[user.ID] = user
	return nil
}

type fakeProviderRepo struct {
	users *fakeUserRepo
}

func (r *fakeProviderRepo) Get(_ context.Context, id uuid.UUID) (*model.Provider, error) {
	r.users.mu.Lock()
	defer r.users.mu.Unlock()
	p, ok := r.users.providers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (r *fakeProviderRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*model.Provider, error) {
	r.users.mu.Lock()
	defer r.users.mu.Unlock()
	for _, p := range r.users.providers {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeProviderRepo) Update(context.Context, *model.Provider) error { return nil }

func (r *fakeProviderRepo) List(context.Context, *model.ProviderFilters) ([]*model.Provider, error) {
	return nil, nil
}

type fakeEmailService struct {
	mu       sync.Mutex
	welcomed []string
}

func (s *fakeEmailService) SendWelcome(_ context.Context, to, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.welcomed = append(s.welcomed, to)
	return nil
}

func (s *fakeEmailService) SendBookingConfirmation(context.Context, string, string) error {
	return nil
}

func (s *fakeEmailService) SendCustom(context.Context, string, string, string) error {
	return nil
}

func newTestService() (*Service, *fakeUserRepo, *fakeEmailService) {
	users := newFakeUserRepo()
	emails := &fakeEmailService{}
	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:             "test-secret",
		RefreshSecret:      "test-refresh-secret",
		ExpiryHours:        1,
		RefreshExpiryHours: 24,
	})
	svc := NewService(
		users,
		&fakeProviderRepo{users: users},
		jwtSvc,
		security.NewBcryptHasher(4),
		emails,
		logger.NewLogger(nil),
	)
	return svc, users, emails
}

func clientRegistration(email string) *model.CreateUserRequest {
	return &model.CreateUserRequest{
		Email:    email,
		Name:     "Thandi M",
		Password: "correct-horse",
		Role:     model.RoleClient,
	}
}

func TestRegisterClient(t *testing.T) {
	svc, users, _ := newTestService()

	user, err := svc.Register(context.Background(), clientRegistration("thandi@example.com"))
	require.NoError(t, err)
	assert.Equal(t, model.UserStatusActive, user.Status)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)
	assert.Len(t, users.users, 1)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Register(context.Background(), clientRegistration("thandi@example.com"))
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), clientRegistration("thandi@example.com"))
	assert.True(t, errors.IsKind(err, errors.KindValidation))
}

func TestRegisterProviderCreatesProfile(t *testing.T) {
	svc, users, _ := newTestService()

	req := clientRegistration("pro@example.com")
	req.Role = model.RoleProvider
	req.Provider = &model.CreateProviderRequest{
		ServiceID:     uuid.New(),
		HourlyRate:    35,
		AvailableDays: []string{"monday", "wednesday"},
	}

	user, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, users.providers, 1)
	for _, p := range users.providers {
		assert.Equal(t, user.ID, p.UserID)
		assert.Equal(t, 35.0, p.HourlyRate)
	}
}

func TestRegisterProviderWithoutProfileRejected(t *testing.T) {
	svc, users, _ := newTestService()

	req := clientRegistration("pro@example.com")
	req.Role = model.RoleProvider

	_, err := svc.Register(context.Background(), req)
	assert.True(t, errors.IsKind(err, errors.KindValidation))
	assert.Empty(t, users.users)
}

func TestLoginAndTokenRoundTrip(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Register(context.Background(), clientRegistration("thandi@example.com"))
	require.NoError(t, err)

	tokens, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "thandi@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)

	actor, err := svc.ValidateToken(context.Background(), tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.RoleClient, actor.Role)
	assert.Equal(t, uuid.Nil, actor.ProviderID)

	refreshed, err := svc.Refresh(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Register(context.Background(), clientRegistration("thandi@example.com"))
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &model.LoginRequest{
		Email:    "thandi@example.com",
		Password: "wrong-horse",
	})
	assert.True(t, errors.IsKind(err, errors.KindUnauthorized))
}

func TestProviderTokenCarriesProfileID(t *testing.T) {
	svc, users, _ := newTestService()

	req := clientRegistration("pro@example.com")
	req.Role = model.RoleProvider
	req.Provider = &model.CreateProviderRequest{
		ServiceID:     uuid.New(),
		HourlyRate:    35,
		AvailableDays: []string{"monday"},
	}
	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	tokens, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "pro@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	actor, err := svc.ValidateToken(context.Background(), tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.RoleProvider, actor.Role)

	var profileID uuid.UUID
	for id := range users.providers {
		profileID = id
	}
	assert.Equal(t, profileID, actor.ProviderID)
}

func TestWelcomeEmailSent(t *testing.T) {
	svc, _, emails := newTestService()

	_, err := svc.Register(context.Background(), clientRegistration("thandi@example.com"))
	require.NoError(t, err)

	// Delivery is asynchronous; allow the goroutine to run.
	assert.Eventually(t, func() bool {
		emails.mu.Lock()
		defer emails.mu.Unlock()
		return len(emails.welcomed) == 1
	}, time.Second, 10*time.Millisecond)
}
