package event

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type panickingHandler struct{}

func (*panickingHandler) EventTypes() []string { return []string{"boom"} }

func (*panickingHandler) Handle(context.Context, shared.DomainEvent) error {
	panic("kaboom")
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("delivers to typed and wildcard handlers", func(t *testing.T) {
		bus := NewInMemoryEventBus(zaptest.NewLogger(t))
		typed := testutil.NewMockEventHandler("title.created")
		all := testutil.NewMockEventHandler()
		other := testutil.NewMockEventHandler("settlement.recorded")
		bus.Subscribe(typed)
		bus.Subscribe(all)
		bus.Subscribe(other)

		require.NoError(t, bus.Publish(ctx, testutil.NewTestEvent("title.created", tenantID)))

		assert.Equal(t, 1, typed.HandledCount())
		assert.Equal(t, 1, all.HandledCount())
		assert.Zero(t, other.HandledCount())
	})

	t.Run("returns handler errors", func(t *testing.T) {
		bus := NewInMemoryEventBus(zaptest.NewLogger(t))
		failing := testutil.NewMockEventHandler("title.created")
		failing.SetError(errors.New("posting failed"))
		ok := testutil.NewMockEventHandler("title.created")
		bus.Subscribe(failing)
		bus.Subscribe(ok)

		err := bus.Publish(ctx, testutil.NewTestEvent("title.created", tenantID))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "posting failed")
		assert.Equal(t, 1, ok.HandledCount(), "remaining handlers still run")
	})

	t.Run("converts panics to errors", func(t *testing.T) {
		bus := NewInMemoryEventBus(zaptest.NewLogger(t))
		bus.Subscribe(&panickingHandler{})

		err := bus.Publish(ctx, testutil.NewTestEvent("boom", tenantID))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "kaboom")
	})

	t.Run("unsubscribed handlers receive nothing", func(t *testing.T) {
		bus := NewInMemoryEventBus(zaptest.NewLogger(t))
		h := testutil.NewMockEventHandler("title.created")
		bus.Subscribe(h)
		bus.Unsubscribe(h)

		require.NoError(t, bus.Publish(ctx, testutil.NewTestEvent("title.created", tenantID)))
		assert.Zero(t, h.HandledCount())
	})
}

func TestEventSerializer_RoundTrip(t *testing.T) {
	s := NewEventSerializer()
	s.Register("test.event", &testutil.TestEvent{})
	assert.True(t, s.IsRegistered("test.event"))
	assert.False(t, s.IsRegistered("other.event"))

	in := testutil.NewTestEvent("test.event", uuid.New())
	in.DocumentNumber = "PV-1042"

	data, err := s.Serialize(in)
	require.NoError(t, err)

	out, err := s.Deserialize("test.event", data)
	require.NoError(t, err)
	decoded, ok := out.(*testutil.TestEvent)
	require.True(t, ok)
	assert.Equal(t, in.ID, decoded.EventID())
	assert.Equal(t, in.TenantID(), decoded.TenantID())
	assert.Equal(t, "PV-1042", decoded.DocumentNumber)

	_, err = s.Deserialize("other.event", data)
	assert.Error(t, err)
}

func TestRegisterAllEvents(t *testing.T) {
	s := NewEventSerializer()
	RegisterAllEvents(s)
	assert.True(t, s.IsRegistered("ledger.title.created"))
	assert.True(t, s.IsRegistered("ledger.settlement.recorded"))
}
