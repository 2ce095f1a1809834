package shared

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEvent struct {
	BaseDomainEvent
}

func TestNewOutboxEntry_CopiesEventIdentity(t *testing.T) {
	tenantID := uuid.New()
	aggID := uuid.New()
	ev := &stubEvent{BaseDomainEvent: NewBaseDomainEvent("ledger.title.created", "LedgerTitle", aggID, tenantID)}

	entry := NewOutboxEntry(ev, []byte(`{}`))

	assert.Equal(t, tenantID, entry.TenantID)
	assert.Equal(t, ev.EventID(), entry.EventID)
	assert.Equal(t, aggID, entry.AggregateID)
	assert.Equal(t, "ledger.title.created", entry.EventType)
	assert.Equal(t, OutboxStatusPending, entry.Status)
	assert.Equal(t, DefaultMaxRetries, entry.MaxRetries)
}

func TestOutboxEntry_MarkProcessing(t *testing.T) {
	entry := &OutboxEntry{Status: OutboxStatusSent}
	assert.Error(t, entry.MarkProcessing())

	entry.Status = OutboxStatusFailed
	require.NoError(t, entry.MarkProcessing())
	assert.Equal(t, OutboxStatusProcessing, entry.Status)
}

func TestOutboxEntry_MarkFailed_MovesToDeadAfterMaxRetries(t *testing.T) {
	entry := &OutboxEntry{
		ID:         uuid.New(),
		Status:     OutboxStatusProcessing,
		RetryCount: 4,
		MaxRetries: 5,
	}

	entry.MarkFailed("final error")

	assert.Equal(t, OutboxStatusDead, entry.Status)
	assert.Equal(t, 5, entry.RetryCount)
	assert.Equal(t, "final error", entry.LastError)
	assert.Nil(t, entry.NextRetryAt)
	assert.True(t, entry.IsDead())
}

func TestOutboxEntry_MarkFailed_SchedulesRetry(t *testing.T) {
	entry := &OutboxEntry{Status: OutboxStatusProcessing, MaxRetries: 5}

	entry.MarkFailed("boom")

	assert.Equal(t, OutboxStatusFailed, entry.Status)
	require.NotNil(t, entry.NextRetryAt)
	wait := entry.NextRetryAt.Sub(entry.UpdatedAt)
	assert.Equal(t, 2*time.Minute, wait)
}

func TestRetryBackoff(t *testing.T) {
	cases := map[int]time.Duration{
		0:  2 * time.Minute,
		1:  2 * time.Minute,
		2:  4 * time.Minute,
		5:  32 * time.Minute,
		6:  time.Hour,
		20: time.Hour,
	}
	for attempt, want := range cases {
		assert.Equal(t, want, RetryBackoff(attempt), "attempt %d", attempt)
	}
}

func TestOutboxEntry_ResetForRetry(t *testing.T) {
	entry := &OutboxEntry{Status: OutboxStatusDead, RetryCount: 5, LastError: "x"}
	require.NoError(t, entry.ResetForRetry())
	assert.Equal(t, OutboxStatusPending, entry.Status)
	assert.Zero(t, entry.RetryCount)
	assert.Empty(t, entry.LastError)

	entry.Status = OutboxStatusSent
	assert.Error(t, entry.ResetForRetry())
}
