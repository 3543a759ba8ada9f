package notifier

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serviceloop/marketplace-api/internal/model"
	"github.com/serviceloop/marketplace-api/internal/repository"
	"github.com/serviceloop/marketplace-api/pkg/logger"
)

type fakeBroker struct {
	mu       sync.Mutex
	channels map[string]chan []byte
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{channels: make(map[string]chan []byte)}
}

func (b *fakeBroker) Publish(_ context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}
	b.mu.Lock()
	ch, ok := b.channels[channel]
	b.mu.Unlock()
	if ok {
		ch <- payload
	}
	return nil
}

func (b *fakeBroker) Subscribe(_ context.Context, channel string) (<-chan []byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan []byte, 10)
	b.channels[channel] = ch
	return ch, nil
}

func (b *fakeBroker) Close() error { return nil }

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) Create(context.Context, *model.User) error { return nil }
func (r *fakeUserRepo) CreateProviderAccount(context.Context, *model.User, *model.Provider) error {
	return nil
}
func (r *fakeUserRepo) GetByEmail(context.Context, string) (*model.User, error) {
	return nil, repository.ErrNotFound
}
func (r *fakeUserRepo) Update(context.Context, *model.User) error { return nil }

type fakeProviderRepo struct {
	providers map[uuid.UUID]*model.Provider
}

func (r *fakeProviderRepo) Get(_ context.Context, id uuid.UUID) (*model.Provider, error) {
	if p, ok := r.providers[id]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeProviderRepo) GetByUserID(context.Context, uuid.UUID) (*model.Provider, error) {
	return nil, repository.ErrNotFound
}
func (r *fakeProviderRepo) Update(context.Context, *model.Provider) error { return nil }
func (r *fakeProviderRepo) List(context.Context, *model.ProviderFilters) ([]*model.Provider, error) {
	return nil, nil
}

type sentMail struct {
	to      string
	subject string
}

type fakeEmailService struct {
	mu   sync.Mutex
	sent []sentMail
}

func (s *fakeEmailService) SendWelcome(_ context.Context, to, _ string) error {
	return s.record(to, "Welcome")
}

func (s *fakeEmailService) SendBookingConfirmation(_ context.Context, to, _ string) error {
	return s.record(to, "Booking received")
}

func (s *fakeEmailService) SendCustom(_ context.Context, to, subject, _ string) error {
	return s.record(to, subject)
}

func (s *fakeEmailService) record(to, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMail{to: to, subject: subject})
	return nil
}

func (s *fakeEmailService) all() []sentMail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMail(nil), s.sent...)
}

func newTestNotifier(client *model.User, provider *model.Provider) (*Notifier, *fakeBroker, *fakeEmailService) {
	users := &fakeUserRepo{users: map[uuid.UUID]*model.User{client.ID: client}}
	providers := &fakeProviderRepo{providers: map[uuid.UUID]*model.Provider{}}
	if provider != nil {
		providers.providers[provider.ID] = provider
	}
	broker := newFakeBroker()
	emails := &fakeEmailService{}
	n := New(broker, users, providers, emails, logger.NewLogger(nil))
	return n, broker, emails
}

func TestNotifierSendsBookingLifecycleEmails(t *testing.T) {
	client := &model.User{Base: model.Base{ID: uuid.New()}, Email: "client@example.com"}
	n, broker, emails := newTestNotifier(client, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, n.Start(ctx))

	booking := &model.Booking{Base: model.Base{ID: uuid.New()}, ClientID: client.ID}
	require.NoError(t, broker.Publish(ctx, model.EventBookingCreated, booking))
	require.NoError(t, broker.Publish(ctx, model.EventBookingCancelled, booking))
	require.NoError(t, broker.Publish(ctx, model.EventBookingCompleted, booking))

	assert.Eventually(t, func() bool {
		return len(emails.all()) == 3
	}, time.Second, 10*time.Millisecond)

	subjects := make(map[string]bool)
	for _, mail := range emails.all() {
		assert.Equal(t, "client@example.com", mail.to)
		subjects[mail.subject] = true
	}
	assert.True(t, subjects["Booking received"])
	assert.True(t, subjects["Booking cancelled"])
	assert.True(t, subjects["Booking completed"])
}

func TestNotifierSendsReviewEmailToProvider(t *testing.T) {
	providerUser := &model.User{Base: model.Base{ID: uuid.New()}, Email: "pro@example.com"}
	provider := &model.Provider{Base: model.Base{ID: uuid.New()}, UserID: providerUser.ID}
	n, _, emails := newTestNotifier(providerUser, provider)

	review := &model.Review{ProviderID: provider.ID, AverageScore: 5}
	err := n.handle(context.Background(), model.EventReviewSubmitted, mustJSON(t, review))
	require.NoError(t, err)

	require.Len(t, emails.all(), 1)
	assert.Equal(t, "pro@example.com", emails.all()[0].to)
	assert.Equal(t, "New review", emails.all()[0].subject)
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	payload, err := json.Marshal(v)
	require.NoError(t, err)
	return payload
}
