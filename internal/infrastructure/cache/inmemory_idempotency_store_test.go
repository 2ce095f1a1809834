package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T) (*InMemoryIdempotencyStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewInMemoryIdempotencyStore(time.Hour)
	store.now = clock.Now
	t.Cleanup(func() { _ = store.Close() })
	return store, clock
}

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	ctx := context.Background()

	t.Run("first delivery is new", func(t *testing.T) {
		store, _ := newTestStore(t)
		isNew, err := store.MarkProcessed(ctx, uuid.NewString(), time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)
	})

	t.Run("redelivery is a duplicate", func(t *testing.T) {
		store, _ := newTestStore(t)
		id := uuid.NewString()

		isNew, err := store.MarkProcessed(ctx, id, time.Hour)
		require.NoError(t, err)
		require.True(t, isNew)

		isNew, err = store.MarkProcessed(ctx, id, time.Hour)
		require.NoError(t, err)
		assert.False(t, isNew)
	})

	t.Run("expired mark is reusable", func(t *testing.T) {
		store, clock := newTestStore(t)
		id := uuid.NewString()

		_, err := store.MarkProcessed(ctx, id, time.Minute)
		require.NoError(t, err)
		clock.Advance(time.Minute)

		isNew, err := store.MarkProcessed(ctx, id, time.Minute)
		require.NoError(t, err)
		assert.True(t, isNew)
	})
}

func TestInMemoryIdempotencyStore_Unmark(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	id := uuid.NewString()

	_, err := store.MarkProcessed(ctx, id, time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Unmark(ctx, id))

	processed, err := store.IsProcessed(ctx, id)
	require.NoError(t, err)
	assert.False(t, processed)

	isNew, err := store.MarkProcessed(ctx, id, time.Hour)
	require.NoError(t, err)
	assert.True(t, isNew, "a released key can be marked again")

	assert.NoError(t, store.Unmark(ctx, "never-marked"))
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	processed, err := store.IsProcessed(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, processed)

	_, err = store.MarkProcessed(ctx, "title-created", 10*time.Second)
	require.NoError(t, err)
	processed, err = store.IsProcessed(ctx, "title-created")
	require.NoError(t, err)
	assert.True(t, processed)

	clock.Advance(10 * time.Second)
	processed, err = store.IsProcessed(ctx, "title-created")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	_, _ = store.MarkProcessed(ctx, "short-1", time.Second)
	_, _ = store.MarkProcessed(ctx, "short-2", time.Second)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)
	assert.Equal(t, 3, store.Size())

	clock.Advance(2 * time.Second)
	store.sweep()

	assert.Equal(t, 1, store.Size())
	processed, err := store.IsProcessed(ctx, "long")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestInMemoryIdempotencyStore_ConcurrentDelivery(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	id := uuid.NewString()

	const workers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			isNew, err := store.MarkProcessed(ctx, id, time.Hour)
			if err == nil && isNew {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore(0)
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
