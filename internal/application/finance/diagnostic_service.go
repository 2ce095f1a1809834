package finance

import (
	"context"
	"errors"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DiagnosisStages reports which links of the order → title → journal chain exist.
// TitleLinkedBack is nil when the title or the entry is missing.
type DiagnosisStages struct {
	Order           bool  `json:"order"`
	Title           bool  `json:"title"`
	JournalEntry    bool  `json:"journal_entry"`
	JournalLines    bool  `json:"journal_lines"`
	Balanced        bool  `json:"balanced"`
	TitleLinkedBack *bool `json:"title_linked_back"`
}

// DiagnosisOrder is the raw order row
type DiagnosisOrder struct {
	ID             uuid.UUID       `json:"id"`
	OrderNumber    string          `json:"order_number"`
	CounterpartyID uuid.UUID       `json:"counterparty_id"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	ItemCount      int             `json:"item_count"`
}

// DiagnosisTitle is the raw title row
type DiagnosisTitle struct {
	ID                uuid.UUID           `json:"id"`
	DocumentNumber    string              `json:"document_number"`
	Status            finance.TitleStatus `json:"status"`
	NetAmount         decimal.Decimal     `json:"net_amount"`
	PaidAmount        decimal.Decimal     `json:"paid_amount"`
	AccountingEntryID *uuid.UUID          `json:"accounting_entry_id,omitempty"`
	LineCount         int                 `json:"line_count"`
}

// DiagnosisEntry is the raw journal header with its lines
type DiagnosisEntry struct {
	ID           uuid.UUID                `json:"id"`
	OriginTable  finance.AccountingOrigin `json:"origin_table"`
	History      string                   `json:"history"`
	TotalDebits  decimal.Decimal          `json:"total_debits"`
	TotalCredits decimal.Decimal          `json:"total_credits"`
	Lines        []DiagnosisEntryLine     `json:"lines"`
}

// DiagnosisEntryLine is one journal line
type DiagnosisEntryLine struct {
	AccountID uuid.UUID       `json:"account_id"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
}

// Diagnosis is the read-only verification of one posted order
type Diagnosis struct {
	OrderID   uuid.UUID              `json:"order_id"`
	Direction finance.TitleDirection `json:"direction"`
	Stages    DiagnosisStages        `json:"stages"`
	Order     *DiagnosisOrder        `json:"order,omitempty"`
	Title     *DiagnosisTitle        `json:"title,omitempty"`
	Entry     *DiagnosisEntry        `json:"journal_entry,omitempty"`
	SumDebit  decimal.Decimal        `json:"sum_debit"`
	SumCredit decimal.Decimal        `json:"sum_credit"`
}

// DiagnosticService verifies the posting chain of an order
type DiagnosticService struct {
	scope  TransactionScope
	cfg    PostingConfig
	logger *zap.Logger
}

// NewDiagnosticService creates a new DiagnosticService
func NewDiagnosticService(scope TransactionScope, cfg PostingConfig, logger *zap.Logger) *DiagnosticService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiagnosticService{scope: scope, cfg: cfg, logger: logger}
}

// Diagnose reads the order, its title, the journal entry and its lines. A
// missing stage is reported in Stages, never as an error; only
// infrastructure failures are returned.
func (s *DiagnosticService) Diagnose(ctx context.Context, tenantID uuid.UUID, direction finance.TitleDirection, orderID uuid.UUID) (*Diagnosis, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("tenant is required")
	}
	if !direction.IsValid() {
		return nil, shared.NewValidationError("invalid title direction %q", direction)
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "diagnostic", "diagnose")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrOrderID, orderID.String(),
		telemetry.SpanAttrDirection, direction.String(),
	)

	d := &Diagnosis{
		OrderID:   orderID,
		Direction: direction,
		SumDebit:  decimal.Zero,
		SumCredit: decimal.Zero,
	}

	var err error
	telemetry.WithProfilingLabels(ctx, telemetry.LedgerOperationLabels(telemetry.OperationDiagnose, direction.String()), func(c context.Context) {
		err = s.scope.Execute(c, func(repos TransactionalRepositories) error {
			return s.collect(c, repos, tenantID, direction, orderID, d)
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Debug("Order diagnosed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_id", orderID.String()),
		zap.Bool("title", d.Stages.Title),
		zap.Bool("journal_entry", d.Stages.JournalEntry),
		zap.Bool("balanced", d.Stages.Balanced),
	)
	return d, nil
}

func (s *DiagnosticService) collect(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, direction finance.TitleDirection, orderID uuid.UUID, d *Diagnosis) error {
	order, err := repos.Orders().FindByIDForTenant(ctx, tenantID, OrderDirectionFor(direction), orderID)
	switch {
	case err == nil:
		d.Stages.Order = true
		d.Order = &DiagnosisOrder{
			ID:             order.ID,
			OrderNumber:    order.OrderNumber,
			CounterpartyID: order.CounterpartyID,
			TotalAmount:    order.TotalAmount,
			ItemCount:      len(order.Items),
		}
	case !errors.Is(err, shared.ErrNotFound):
		return err
	}

	title, err := s.findTitle(ctx, repos, tenantID, direction, orderID, order)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	d.Stages.Title = true
	d.Title = &DiagnosisTitle{
		ID:                title.ID,
		DocumentNumber:    title.DocumentNumber,
		Status:            title.Status,
		NetAmount:         title.NetAmount,
		PaidAmount:        title.PaidAmount,
		AccountingEntryID: title.AccountingEntryID,
		LineCount:         len(title.Lines),
	}

	entry, err := s.findEntry(ctx, repos, tenantID, title)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	d.Stages.JournalEntry = true
	d.Entry = &DiagnosisEntry{
		ID:           entry.ID,
		OriginTable:  entry.OriginTable,
		History:      entry.History,
		TotalDebits:  entry.TotalDebits,
		TotalCredits: entry.TotalCredits,
		Lines:        make([]DiagnosisEntryLine, 0, len(entry.Lines)),
	}
	for _, l := range entry.Lines {
		d.Entry.Lines = append(d.Entry.Lines, DiagnosisEntryLine{AccountID: l.AccountID, Debit: l.Debit, Credit: l.Credit})
	}

	totals := finance.SumLines(entry.Lines)
	d.SumDebit, d.SumCredit = totals.Debit, totals.Credit
	d.Stages.JournalLines = len(entry.Lines) >= 2
	d.Stages.Balanced = d.Stages.JournalLines && totals.Balanced()

	linked := title.AccountingEntryID != nil && *title.AccountingEntryID == entry.ID
	d.Stages.TitleLinkedBack = &linked
	return nil
}

// findTitle looks the title up by source order first. An order whose
// document number was already taken by another order resolves to that
// title, the same one posting returned for it.
func (s *DiagnosticService) findTitle(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, direction finance.TitleDirection, orderID uuid.UUID, order *trade.CommercialOrder) (*finance.LedgerTitle, error) {
	title, err := repos.Titles().FindBySourceOrder(ctx, tenantID, direction, orderID)
	if err == nil || !errors.Is(err, shared.ErrNotFound) || order == nil {
		return title, err
	}
	return repos.Titles().FindByDocumentNumber(ctx, tenantID, direction, s.cfg.DocumentNumberFor(order, direction))
}

// findEntry prefers the entry referenced by the title and falls back to the
// entry posted for the title as source document.
func (s *DiagnosticService) findEntry(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, title *finance.LedgerTitle) (*finance.AccountingEntry, error) {
	if title.AccountingEntryID != nil {
		entry, err := repos.Entries().FindByIDForTenant(ctx, tenantID, *title.AccountingEntryID)
		if err == nil || !errors.Is(err, shared.ErrNotFound) {
			return entry, err
		}
	}
	return repos.Entries().FindBySource(ctx, tenantID, title.Direction.TitleOrigin(), title.ID)
}
