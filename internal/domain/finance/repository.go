package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerTitleRepository persists titles and their lines
type LedgerTitleRepository interface {
	// FindByIDForTenant loads a title with its lines
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*LedgerTitle, error)

	// FindByIDForUpdate loads a title holding a row lock until the
	// surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*LedgerTitle, error)

	// FindByDocumentNumber is the idempotency key lookup
	FindByDocumentNumber(ctx context.Context, tenantID uuid.UUID, direction TitleDirection, documentNumber string) (*LedgerTitle, error)

	// FindBySourceOrder finds the title posted for an order
	FindBySourceOrder(ctx context.Context, tenantID uuid.UUID, direction TitleDirection, orderID uuid.UUID) (*LedgerTitle, error)

	// Create inserts the header and its lines
	Create(ctx context.Context, title *LedgerTitle) error

	// SaveWithLock updates the header with an optimistic version check
	SaveWithLock(ctx context.Context, title *LedgerTitle) error

	// LinkAccountingEntry sets accounting_entry_id on the title
	LinkAccountingEntry(ctx context.Context, tenantID, titleID, entryID uuid.UUID) error
}

// AccountingEntryRepository persists journal entries
type AccountingEntryRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*AccountingEntry, error)

	// FindBySource returns the entry posted for a source document, if any
	FindBySource(ctx context.Context, tenantID uuid.UUID, origin AccountingOrigin, sourceID uuid.UUID) (*AccountingEntry, error)

	// Create inserts the header and its lines
	Create(ctx context.Context, entry *AccountingEntry) error
}

// AccountingRuleRepository resolves posting rules
type AccountingRuleRepository interface {
	// FindAutomatic returns the active automatic rule for the origin and
	// category, preferring an exact category match over a catch-all rule
	FindAutomatic(ctx context.Context, tenantID uuid.UUID, origin AccountingOrigin, categoryID *uuid.UUID) (*AccountingRule, error)
}

// SettlementRepository persists settlement headers and lines
type SettlementRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*SettlementHeader, error)

	// Create inserts the header and its lines
	Create(ctx context.Context, header *SettlementHeader) error

	// SumPaidForTitle totals paid_value of every line referencing the title
	SumPaidForTitle(ctx context.Context, tenantID, titleID uuid.UUID) (decimal.Decimal, error)

	// FindLinesByTitle lists the settlement lines of a title, oldest first
	FindLinesByTitle(ctx context.Context, tenantID, titleID uuid.UUID) ([]SettlementLine, error)
}

// LookupRepository resolves display names used in settlement responses
type LookupRepository interface {
	// FinancialAccountName returns "" with no error when the account is absent
	FinancialAccountName(ctx context.Context, tenantID, id uuid.UUID) (string, error)
	// PaymentMethodName returns "" with no error when the method is absent
	PaymentMethodName(ctx context.Context, tenantID, id uuid.UUID) (string, error)
}
