package worker

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	"github.com/clinicore/clinic-api/pkg/logger"
	"github.com/clinicore/clinic-api/pkg/messaging"
)

type fakeOutboxRepo struct {
	repository.OutboxRepository
	pending       []*model.OutboxEvent
	statuses      map[uuid.UUID]model.OutboxStatus
	deletedBefore []time.Time
	deleteCount   int64
}

func (f *fakeOutboxRepo) GetPendingEvents(_ context.Context, _ int) ([]*model.OutboxEvent, error) {
	return f.pending, nil
}

func (f *fakeOutboxRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.OutboxStatus, _ *string) error {
	if f.statuses == nil {
		f.statuses = map[uuid.UUID]model.OutboxStatus{}
	}
	f.statuses[id] = status
	return nil
}

func (f *fakeOutboxRepo) DeleteProcessedBefore(_ context.Context, before time.Time) (int64, error) {
	f.deletedBefore = append(f.deletedBefore, before)
	return f.deleteCount, nil
}

type fakeBroker struct {
	published []string
	err       error
}

func (f *fakeBroker) Publish(_ context.Context, _ string, message interface{}) error {
	if f.err != nil {
		return f.err
	}
	if m, ok := message.(messaging.Message); ok {
		f.published = append(f.published, m.Type)
	}
	return nil
}

func (f *fakeBroker) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	return nil, nil
}

func (f *fakeBroker) Close() error { return nil }

func quietLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
}

func pendingEvent(eventType string) *model.OutboxEvent {
	return &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   []byte(`{}`),
		Status:    model.OutboxStatusPending,
	}
}

func TestProcessBatch(t *testing.T) {
	t.Run("published events are marked processed", func(t *testing.T) {
		ev := pendingEvent("expense.paid")
		repo := &fakeOutboxRepo{pending: []*model.OutboxEvent{ev}}
		broker := &fakeBroker{}
		p := NewOutboxProcessor(repo, broker, DefaultOutboxProcessorConfig(), quietLogger(), nil)

		require.NoError(t, p.processBatch(context.Background()))
		assert.Equal(t, []string{"expense.paid"}, broker.published)
		assert.Equal(t, model.OutboxStatusProcessed, repo.statuses[ev.ID])
	})

	t.Run("publish failure within the retry budget goes back to pending", func(t *testing.T) {
		ev := pendingEvent("expense.paid")
		repo := &fakeOutboxRepo{pending: []*model.OutboxEvent{ev}}
		broker := &fakeBroker{err: errors.New("broker down")}
		p := NewOutboxProcessor(repo, broker, DefaultOutboxProcessorConfig(), quietLogger(), nil)

		require.NoError(t, p.processBatch(context.Background()))
		assert.Equal(t, model.OutboxStatusPending, repo.statuses[ev.ID])
	})

	t.Run("publish failure past the retry budget stays failed", func(t *testing.T) {
		ev := pendingEvent("expense.paid")
		ev.RetryCount = 2
		repo := &fakeOutboxRepo{pending: []*model.OutboxEvent{ev}}
		broker := &fakeBroker{err: errors.New("broker down")}
		p := NewOutboxProcessor(repo, broker, DefaultOutboxProcessorConfig(), quietLogger(), nil)

		require.NoError(t, p.processBatch(context.Background()))
		assert.Equal(t, model.OutboxStatusFailed, repo.statuses[ev.ID])
	})
}

func TestCleanupProcessed(t *testing.T) {
	t.Run("deletes rows older than the retention window", func(t *testing.T) {
		repo := &fakeOutboxRepo{deleteCount: 12}
		cfg := DefaultOutboxProcessorConfig()
		cfg.Retention = 48 * time.Hour
		p := NewOutboxProcessor(repo, &fakeBroker{}, cfg, quietLogger(), nil)

		before := time.Now().Add(-cfg.Retention)
		require.NoError(t, p.cleanupProcessed(context.Background()))

		require.Len(t, repo.deletedBefore, 1)
		assert.WithinDuration(t, before, repo.deletedBefore[0], time.Minute)
	})
}
