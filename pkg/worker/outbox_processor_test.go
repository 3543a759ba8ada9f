package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serviceloop/marketplace-api/internal/model"
	"github.com/serviceloop/marketplace-api/pkg/logger"
	"github.com/serviceloop/marketplace-api/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("worker_test", "outbox")

type fakeOutboxRepo struct {
	pending   []*model.OutboxEvent
	processed []uuid.UUID
	failed    map[uuid.UUID]string
	pruned    int64
}

func newFakeOutboxRepo(events ...*model.OutboxEvent) *fakeOutboxRepo {
	return &fakeOutboxRepo{pending: events, failed: make(map[uuid.UUID]string)}
}

func (r *fakeOutboxRepo) Create(context.Context, *model.OutboxEvent) error { return nil }

func (r *fakeOutboxRepo) GetPendingEventsWithLock(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	if len(r.pending) > limit {
		return r.pending[:limit], nil
	}
	return r.pending, nil
}

func (r *fakeOutboxRepo) MarkProcessed(_ context.Context, id uuid.UUID) error {
	r.processed = append(r.processed, id)
	return nil
}

func (r *fakeOutboxRepo) MarkFailed(_ context.Context, id uuid.UUID, errorMessage string) error {
	r.failed[id] = errorMessage
	return nil
}

func (r *fakeOutboxRepo) DeleteProcessedBefore(_ context.Context, _ time.Time) (int64, error) {
	return r.pruned, nil
}

type publishedMessage struct {
	channel string
	payload interface{}
}

type recordingBroker struct {
	published []publishedMessage
	err       error
}

func (b *recordingBroker) Publish(_ context.Context, channel string, message interface{}) error {
	if b.err != nil {
		return b.err
	}
	b.published = append(b.published, publishedMessage{channel: channel, payload: message})
	return nil
}

func (b *recordingBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, nil
}

func (b *recordingBroker) Close() error { return nil }

func pendingEvent(t *testing.T, eventType string) *model.OutboxEvent {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"id": uuid.New().String()})
	require.NoError(t, err)
	return &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   payload,
		Status:    model.OutboxStatusPending,
	}
}

func newTestProcessor(repo *fakeOutboxRepo, broker *recordingBroker) *OutboxProcessor {
	return NewOutboxProcessor(repo, broker, OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  time.Second,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
		Retention:     time.Hour,
	}, logger.NewLogger(nil), testMetrics)
}

func TestProcessEventsPublishesAndMarksProcessed(t *testing.T) {
	created := pendingEvent(t, model.EventBookingCreated)
	reviewed := pendingEvent(t, model.EventReviewSubmitted)
	repo := newFakeOutboxRepo(created, reviewed)
	broker := &recordingBroker{}

	p := newTestProcessor(repo, broker)
	require.NoError(t, p.processEvents(context.Background()))

	require.Len(t, broker.published, 2)
	assert.Equal(t, model.EventBookingCreated, broker.published[0].channel)
	assert.Equal(t, model.EventReviewSubmitted, broker.published[1].channel)
	assert.ElementsMatch(t, []uuid.UUID{created.ID, reviewed.ID}, repo.processed)
	assert.Empty(t, repo.failed)
}

func TestProcessEventsMarksFailedAfterRetries(t *testing.T) {
	event := pendingEvent(t, model.EventBookingCancelled)
	repo := newFakeOutboxRepo(event)
	broker := &recordingBroker{err: errors.New("broker down")}

	p := newTestProcessor(repo, broker)
	require.NoError(t, p.processEvents(context.Background()))

	assert.Empty(t, repo.processed)
	assert.Equal(t, "broker down", repo.failed[event.ID])
}

func TestProcessEventsRespectsBatchSize(t *testing.T) {
	var events []*model.OutboxEvent
	for i := 0; i < 15; i++ {
		events = append(events, pendingEvent(t, model.EventBookingUpdated))
	}
	repo := newFakeOutboxRepo(events...)
	broker := &recordingBroker{}

	p := newTestProcessor(repo, broker)
	require.NoError(t, p.processEvents(context.Background()))

	assert.Len(t, broker.published, 10)
	assert.Len(t, repo.processed, 10)
}
