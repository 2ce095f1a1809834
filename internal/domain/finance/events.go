package finance

import (
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Integration event types written to the outbox
const (
	EventTypeTitleCreated       = "ledger.title.created"
	EventTypeSettlementRecorded = "ledger.settlement.recorded"

	AggregateTypeLedgerTitle = "LedgerTitle"
	AggregateTypeSettlement  = "SettlementHeader"
)

// TitleCreatedEvent is raised when an order has been posted to the ledger.
// The accounting poster reacts to it by journaling the title.
type TitleCreatedEvent struct {
	shared.BaseDomainEvent
	TitleID        uuid.UUID       `json:"title_id"`
	Direction      TitleDirection  `json:"direction"`
	SourceOrderID  uuid.UUID       `json:"source_order_id"`
	DocumentNumber string          `json:"document_number"`
	CounterpartyID uuid.UUID       `json:"counterparty_id"`
	NetAmount      decimal.Decimal `json:"net_amount"`
	DueDate        time.Time       `json:"due_date"`
}

// NewTitleCreatedEvent creates a new TitleCreatedEvent
func NewTitleCreatedEvent(t *LedgerTitle) *TitleCreatedEvent {
	return &TitleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTitleCreated, AggregateTypeLedgerTitle, t.ID, t.TenantID),
		TitleID:         t.ID,
		Direction:       t.Direction,
		SourceOrderID:   t.SourceOrderID,
		DocumentNumber:  t.DocumentNumber,
		CounterpartyID:  t.CounterpartyID,
		NetAmount:       t.NetAmount,
		DueDate:         t.DueDate,
	}
}

// SettlementRecordedEvent is raised for every settlement header. TitleID is
// nil for header-only settlements.
type SettlementRecordedEvent struct {
	shared.BaseDomainEvent
	SettlementID  uuid.UUID       `json:"settlement_id"`
	Direction     TitleDirection  `json:"direction"`
	PaymentNumber string          `json:"payment_number"`
	TitleID       *uuid.UUID      `json:"title_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	StatusAfter   TitleStatus     `json:"status_after,omitempty"`
}

// NewSettlementRecordedEvent creates a new SettlementRecordedEvent
func NewSettlementRecordedEvent(s *SettlementHeader, titleID *uuid.UUID, statusAfter TitleStatus) *SettlementRecordedEvent {
	return &SettlementRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSettlementRecorded, AggregateTypeSettlement, s.ID, s.TenantID),
		SettlementID:    s.ID,
		Direction:       s.Direction,
		PaymentNumber:   s.PaymentNumber,
		TitleID:         titleID,
		Amount:          s.TotalAmount,
		StatusAfter:     statusAfter,
	}
}
