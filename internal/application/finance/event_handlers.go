package finance

import (
	"context"
	"fmt"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JournalPoster is the part of AccountingPoster the event handlers need
type JournalPoster interface {
	PostJournalForTitle(ctx context.Context, tenantID, titleID uuid.UUID) (*PostJournalResult, error)
	PostJournalForSettlement(ctx context.Context, tenantID, settlementID uuid.UUID) (*PostJournalResult, error)
}

// TitleCreatedHandler handles TitleCreatedEvent and journals the new title
type TitleCreatedHandler struct {
	poster JournalPoster
	logger *zap.Logger
}

// NewTitleCreatedHandler creates a new handler for title created events
func NewTitleCreatedHandler(poster JournalPoster, logger *zap.Logger) *TitleCreatedHandler {
	return &TitleCreatedHandler{
		poster: poster,
		logger: logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *TitleCreatedHandler) EventTypes() []string {
	return []string{finance.EventTypeTitleCreated}
}

// Handle processes a TitleCreatedEvent by posting the title journal
func (h *TitleCreatedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	created, ok := event.(*finance.TitleCreatedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", finance.EventTypeTitleCreated),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			finance.EventTypeTitleCreated, event.EventType())
	}

	h.logger.Info("processing title created event for journal posting",
		zap.String("title_id", created.TitleID.String()),
		zap.String("document_number", created.DocumentNumber),
		zap.String("direction", created.Direction.String()),
	)

	result, err := h.poster.PostJournalForTitle(ctx, created.TenantID(), created.TitleID)
	if err != nil {
		h.logger.Error("failed to post title journal",
			zap.String("title_id", created.TitleID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to post journal for title %s: %w", created.DocumentNumber, err)
	}

	h.logger.Info("title journal handled",
		zap.String("title_id", created.TitleID.String()),
		zap.String("entry_id", result.EntryID.String()),
		zap.Bool("created", result.Created),
	)
	return nil
}

// SettlementRecordedHandler handles SettlementRecordedEvent and journals the payment
type SettlementRecordedHandler struct {
	poster JournalPoster
	logger *zap.Logger
}

// NewSettlementRecordedHandler creates a new handler for settlement recorded events
func NewSettlementRecordedHandler(poster JournalPoster, logger *zap.Logger) *SettlementRecordedHandler {
	return &SettlementRecordedHandler{
		poster: poster,
		logger: logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *SettlementRecordedHandler) EventTypes() []string {
	return []string{finance.EventTypeSettlementRecorded}
}

// Handle processes a SettlementRecordedEvent
func (h *SettlementRecordedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	recorded, ok := event.(*finance.SettlementRecordedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", finance.EventTypeSettlementRecorded),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			finance.EventTypeSettlementRecorded, event.EventType())
	}

	result, err := h.poster.PostJournalForSettlement(ctx, recorded.TenantID(), recorded.SettlementID)
	if err != nil {
		h.logger.Error("failed to post settlement journal",
			zap.String("settlement_id", recorded.SettlementID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to post journal for settlement %s: %w", recorded.PaymentNumber, err)
	}

	h.logger.Info("settlement journal handled",
		zap.String("settlement_id", recorded.SettlementID.String()),
		zap.String("entry_id", result.EntryID.String()),
		zap.Bool("created", result.Created),
	)
	return nil
}

var (
	_ shared.EventHandler = (*TitleCreatedHandler)(nil)
	_ shared.EventHandler = (*SettlementRecordedHandler)(nil)
	_ JournalPoster       = (*AccountingPoster)(nil)
)
