package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// MockEventHandler records the ids of delivered events and fails with a
// configurable error. An empty type list subscribes to every event.
type MockEventHandler struct {
	types []string

	mu   sync.Mutex
	seen []uuid.UUID
	err  error
}

func NewMockEventHandler(eventTypes ...string) *MockEventHandler {
	return &MockEventHandler{types: eventTypes}
}

func (h *MockEventHandler) EventTypes() []string { return h.types }

func (h *MockEventHandler) Handle(_ context.Context, evt shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, evt.EventID())
	return h.err
}

// HandledCount counts deliveries, failed ones included.
func (h *MockEventHandler) HandledCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.seen)
}

// SetError makes subsequent deliveries fail with err; nil clears it.
func (h *MockEventHandler) SetError(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
}

// TestEvent stands in for a ledger event in bus and outbox tests.
type TestEvent struct {
	shared.BaseDomainEvent
	DocumentNumber string `json:"document_number"`
}

// NewTestEvent builds an event of the given type on a fresh title aggregate.
func NewTestEvent(eventType string, tenantID uuid.UUID) *TestEvent {
	titleID := uuid.New()
	return &TestEvent{
		BaseDomainEvent: shared.BaseDomainEvent{
			ID:            uuid.New(),
			Type:          eventType,
			TenantIDValue: tenantID,
			Timestamp:     time.Now().UTC(),
			AggID:         titleID,
			AggType:       "LedgerTitle",
		},
		DocumentNumber: "PV-" + titleID.String()[:8],
	}
}
