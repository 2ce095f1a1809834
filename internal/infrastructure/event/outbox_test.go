package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/erp/ledger/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func publishTestEvents(t *testing.T, db *gorm.DB, serializer *EventSerializer, n int) []*testutil.TestEvent {
	t.Helper()
	events := make([]*testutil.TestEvent, n)
	domainEvents := make([]shared.DomainEvent, n)
	for i := range events {
		events[i] = testutil.NewTestEvent("test.event", uuid.New())
		domainEvents[i] = events[i]
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		return NewOutboxPublisher(serializer).PublishWithTx(context.Background(), tx, domainEvents...)
	})
	require.NoError(t, err)
	return events
}

func TestGormOutboxRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	repo := NewGormOutboxRepository(db)
	serializer := NewEventSerializer()
	serializer.Register("test.event", &testutil.TestEvent{})

	events := publishTestEvents(t, db, serializer, 3)

	pending, err := repo.FindPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	tenants := map[uuid.UUID]bool{}
	for _, e := range events {
		tenants[e.TenantID()] = true
	}
	for _, e := range pending {
		assert.True(t, tenants[e.TenantID], "entry keeps the event tenant")
		assert.Equal(t, shared.OutboxStatusPending, e.Status)
	}

	claimed, err := repo.MarkProcessing(ctx, []uuid.UUID{pending[0].ID, pending[1].ID})
	require.NoError(t, err)
	require.Len(t, claimed, 2)
	for _, e := range claimed {
		assert.Equal(t, shared.OutboxStatusProcessing, e.Status)
	}

	again, err := repo.MarkProcessing(ctx, []uuid.UUID{pending[0].ID})
	require.NoError(t, err)
	assert.Empty(t, again, "processing rows cannot be claimed twice")

	claimed[0].MarkSent()
	require.NoError(t, repo.Update(ctx, claimed[0]))
	claimed[1].MarkFailed("boom")
	require.NoError(t, repo.Update(ctx, claimed[1]))

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[shared.OutboxStatusSent])
	assert.Equal(t, int64(1), counts[shared.OutboxStatusFailed])
	assert.Equal(t, int64(1), counts[shared.OutboxStatusPending])

	retryable, err := repo.FindRetryable(ctx, time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, retryable, "backoff has not elapsed")

	retryable, err = repo.FindRetryable(ctx, time.Now().Add(3*time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, retryable, 1)
	assert.Equal(t, claimed[1].ID, retryable[0].ID)

	deleted, err := repo.DeleteSentBefore(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining int64
	require.NoError(t, db.Model(&models.OutboxEntryModel{}).Count(&remaining).Error)
	assert.Equal(t, int64(2), remaining)
}

func TestOutboxProcessor_ProcessPending(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*gorm.DB, *OutboxProcessor, *testutil.MockEventHandler) {
		db := testutil.NewSQLiteDB(t)
		serializer := NewEventSerializer()
		serializer.Register("test.event", &testutil.TestEvent{})
		bus := NewInMemoryEventBus(zaptest.NewLogger(t))
		handler := testutil.NewMockEventHandler("test.event")
		bus.Subscribe(handler)
		p := NewOutboxProcessor(NewGormOutboxRepository(db), bus, serializer,
			DefaultOutboxProcessorConfig(), zaptest.NewLogger(t))
		publishTestEvents(t, db, serializer, 2)
		return db, p, handler
	}

	t.Run("delivers and marks sent", func(t *testing.T) {
		db, p, handler := setup(t)

		assert.Equal(t, 2, p.ProcessPending(ctx))
		assert.Equal(t, 2, handler.HandledCount())

		counts, err := NewGormOutboxRepository(db).CountByStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), counts[shared.OutboxStatusSent])

		assert.Zero(t, p.ProcessPending(ctx), "sent rows are not redelivered")
	})

	t.Run("handler failure schedules a retry", func(t *testing.T) {
		db, p, handler := setup(t)
		handler.SetError(errors.New("no accounting rule"))

		assert.Zero(t, p.ProcessPending(ctx))

		var rows []models.OutboxEntryModel
		require.NoError(t, db.Find(&rows).Error)
		require.Len(t, rows, 2)
		for _, r := range rows {
			assert.Equal(t, shared.OutboxStatusFailed, r.Status)
			assert.Equal(t, 1, r.RetryCount)
			require.NotNil(t, r.NextRetryAt)
			assert.Contains(t, r.LastError, "no accounting rule")
		}
	})

	t.Run("unknown event types fail without publishing", func(t *testing.T) {
		db := testutil.NewSQLiteDB(t)
		producer := NewEventSerializer()
		producer.Register("test.event", &testutil.TestEvent{})
		publishTestEvents(t, db, producer, 1)

		bus := NewInMemoryEventBus(zaptest.NewLogger(t))
		handler := testutil.NewMockEventHandler()
		bus.Subscribe(handler)
		p := NewOutboxProcessor(NewGormOutboxRepository(db), bus, NewEventSerializer(),
			DefaultOutboxProcessorConfig(), zaptest.NewLogger(t))

		assert.Zero(t, p.ProcessPending(ctx))
		assert.Zero(t, handler.HandledCount())
	})
}
