package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AccountingPoster mirrors titles and settlements into the double-entry
// journal using the tenant's automatic accounting rules.
type AccountingPoster struct {
	scope   TransactionScope
	timeout time.Duration
	metrics MetricsRecorder
	logger  *zap.Logger
}

// NewAccountingPoster creates a new AccountingPoster
func NewAccountingPoster(scope TransactionScope, timeout time.Duration, logger *zap.Logger) *AccountingPoster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountingPoster{scope: scope, timeout: timeout, logger: logger}
}

// SetMetrics sets the business metrics recorder
func (p *AccountingPoster) SetMetrics(m MetricsRecorder) {
	p.metrics = m
}

// journalSource is what both postings need to build a two-line entry
type journalSource struct {
	origin             finance.AccountingOrigin
	sourceID           uuid.UUID
	documentNumber     string
	history            string
	date               time.Time
	amount             decimal.Decimal
	categoryID         *uuid.UUID
	counterpartyID     *uuid.UUID
	financialAccountID *uuid.UUID
}

// PostJournalForTitle writes the journal entry of a title and links it back
// on the title. It is idempotent: a title already journaled returns its
// entry with Created=false.
func (p *AccountingPoster) PostJournalForTitle(ctx context.Context, tenantID, titleID uuid.UUID) (*PostJournalResult, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("tenant is required")
	}

	ctx, cancel := withOperationTimeout(ctx, p.timeout)
	defer cancel()

	ctx, span := telemetry.StartServiceSpan(ctx, "accounting", "post_title_journal")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, tenantID.String(), telemetry.SpanAttrTitleID, titleID.String())

	var result *PostJournalResult
	var opErr error
	telemetry.WithProfilingLabels(ctx, telemetry.LedgerOperationLabels(telemetry.OperationPostJournal, ""), func(c context.Context) {
		result, opErr = p.postTitle(c, tenantID, titleID)
	})
	if errors.Is(opErr, shared.ErrAlreadyExists) {
		// Another delivery of the same event won the insert
		result, opErr = p.existingForSource(ctx, tenantID, titleID, nil)
	}
	if opErr != nil {
		telemetry.RecordError(span, opErr)
		p.recordFailure(ctx, tenantID, opErr)
		return nil, opErr
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrEntryID, result.EntryID.String())
	return result, nil
}

func (p *AccountingPoster) postTitle(ctx context.Context, tenantID, titleID uuid.UUID) (*PostJournalResult, error) {
	var result *PostJournalResult
	err := p.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		title, err := repos.Titles().FindByIDForUpdate(ctx, tenantID, titleID)
		if err != nil {
			return err
		}
		if title.AccountingEntryID != nil {
			result = &PostJournalResult{EntryID: *title.AccountingEntryID, Created: false}
			return nil
		}

		origin := title.Direction.TitleOrigin()
		existing, err := repos.Entries().FindBySource(ctx, tenantID, origin, title.ID)
		if err == nil {
			if err := repos.Titles().LinkAccountingEntry(ctx, tenantID, title.ID, existing.ID); err != nil {
				return err
			}
			result = &PostJournalResult{EntryID: existing.ID, Created: false}
			return nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		counterpartyID := title.CounterpartyID
		entry, err := p.buildEntry(ctx, repos, tenantID, journalSource{
			origin:         origin,
			sourceID:       title.ID,
			documentNumber: title.DocumentNumber,
			history:        title.Note,
			date:           title.LaunchDate,
			amount:         title.NetAmount,
			categoryID:     title.CategoryID,
			counterpartyID: &counterpartyID,
		})
		if err != nil {
			return err
		}
		if err := repos.Entries().Create(ctx, entry); err != nil {
			return err
		}
		if err := repos.Titles().LinkAccountingEntry(ctx, tenantID, title.ID, entry.ID); err != nil {
			return err
		}
		result = &PostJournalResult{EntryID: entry.ID, Created: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Created {
		p.logger.Info("Title journal posted",
			zap.String("tenant_id", tenantID.String()),
			zap.String("title_id", titleID.String()),
			zap.String("entry_id", result.EntryID.String()),
		)
		if p.metrics != nil {
			p.metrics.RecordJournalPosted(ctx, tenantID, "title")
		}
	}
	return result, nil
}

// PostJournalForSettlement writes the payment journal of a settlement. Free
// headers are journaled for their header total.
func (p *AccountingPoster) PostJournalForSettlement(ctx context.Context, tenantID, settlementID uuid.UUID) (*PostJournalResult, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("tenant is required")
	}

	ctx, cancel := withOperationTimeout(ctx, p.timeout)
	defer cancel()

	ctx, span := telemetry.StartServiceSpan(ctx, "accounting", "post_settlement_journal")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, tenantID.String(), telemetry.SpanAttrSettlementID, settlementID.String())

	var result *PostJournalResult
	var opErr error
	telemetry.WithProfilingLabels(ctx, telemetry.LedgerOperationLabels(telemetry.OperationPostJournal, ""), func(c context.Context) {
		result, opErr = p.postSettlement(c, tenantID, settlementID)
	})
	if errors.Is(opErr, shared.ErrAlreadyExists) {
		result, opErr = p.existingForSource(ctx, tenantID, settlementID, &settlementID)
	}
	if opErr != nil {
		telemetry.RecordError(span, opErr)
		p.recordFailure(ctx, tenantID, opErr)
		return nil, opErr
	}
	return result, nil
}

func (p *AccountingPoster) postSettlement(ctx context.Context, tenantID, settlementID uuid.UUID) (*PostJournalResult, error) {
	var result *PostJournalResult
	err := p.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		header, err := repos.Settlements().FindByIDForTenant(ctx, tenantID, settlementID)
		if err != nil {
			return err
		}
		origin := header.Direction.SettlementOrigin()
		existing, err := repos.Entries().FindBySource(ctx, tenantID, origin, header.ID)
		if err == nil {
			result = &PostJournalResult{EntryID: existing.ID, Created: false}
			return nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		// A header without lines posts its own total under the
		// uncategorized rule of the origin.
		var categoryID, counterpartyID *uuid.UUID
		if !header.IsHeaderOnly() {
			title, err := repos.Titles().FindByIDForTenant(ctx, tenantID, header.Lines[0].TitleID)
			if err != nil {
				return err
			}
			categoryID = title.CategoryID
			cp := title.CounterpartyID
			counterpartyID = &cp
		}

		entry, err := p.buildEntry(ctx, repos, tenantID, journalSource{
			origin:             origin,
			sourceID:           header.ID,
			documentNumber:     header.PaymentNumber,
			history:            header.Note,
			date:               header.SettlementDate,
			amount:             header.TotalAmount,
			categoryID:         categoryID,
			counterpartyID:     counterpartyID,
			financialAccountID: header.FinancialAccountID,
		})
		if err != nil {
			return err
		}
		if err := repos.Entries().Create(ctx, entry); err != nil {
			return err
		}
		result = &PostJournalResult{EntryID: entry.ID, Created: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Created {
		p.logger.Info("Settlement journal posted",
			zap.String("tenant_id", tenantID.String()),
			zap.String("settlement_id", settlementID.String()),
			zap.String("entry_id", result.EntryID.String()),
		)
		if p.metrics != nil {
			p.metrics.RecordJournalPosted(ctx, tenantID, "settlement")
		}
	}
	return result, nil
}

// buildEntry resolves the accounting rule and builds a balanced entry
func (p *AccountingPoster) buildEntry(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, src journalSource) (*finance.AccountingEntry, error) {
	rule, err := repos.Rules().FindAutomatic(ctx, tenantID, src.origin, src.categoryID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewValidationError("no active automatic accounting rule for origin %s", src.origin)
		}
		return nil, err
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	history := src.history
	if history == "" {
		history = fmt.Sprintf("%s %s", src.origin, src.documentNumber)
	}

	return finance.NewAccountingEntry(finance.EntryParams{
		TenantID:           tenantID,
		Origin:             src.origin,
		SourceID:           src.sourceID,
		DocumentNumber:     src.documentNumber,
		History:            history,
		EntryDate:          src.date,
		CounterpartyID:     src.counterpartyID,
		FinancialAccountID: src.financialAccountID,
	}, []finance.AccountingEntryLine{
		finance.DebitLine(rule.DebitAccountID, src.amount, history),
		finance.CreditLine(rule.CreditAccountID, src.amount, history),
	})
}

// existingForSource re-reads the entry a concurrent poster inserted. For
// titles (settlementID nil) the link on the title is also ensured.
func (p *AccountingPoster) existingForSource(ctx context.Context, tenantID, sourceID uuid.UUID, settlementID *uuid.UUID) (*PostJournalResult, error) {
	var result *PostJournalResult
	err := p.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var origin finance.AccountingOrigin
		if settlementID != nil {
			header, err := repos.Settlements().FindByIDForTenant(ctx, tenantID, *settlementID)
			if err != nil {
				return err
			}
			origin = header.Direction.SettlementOrigin()
		} else {
			title, err := repos.Titles().FindByIDForTenant(ctx, tenantID, sourceID)
			if err != nil {
				return err
			}
			origin = title.Direction.TitleOrigin()
		}

		entry, err := repos.Entries().FindBySource(ctx, tenantID, origin, sourceID)
		if err != nil {
			return err
		}
		if settlementID == nil {
			if err := repos.Titles().LinkAccountingEntry(ctx, tenantID, sourceID, entry.ID); err != nil {
				return err
			}
		}
		result = &PostJournalResult{EntryID: entry.ID, Created: false}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (p *AccountingPoster) recordFailure(ctx context.Context, tenantID uuid.UUID, err error) {
	if p.metrics != nil {
		p.metrics.RecordFailure(ctx, tenantID, telemetry.OperationPostJournal, errorCode(err))
	}
}
