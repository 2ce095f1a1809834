package finance

import (
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// LedgerAccount is a chart-of-accounts entry referenced by rules. The chart
// itself is maintained elsewhere.
type LedgerAccount struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Code     string
	Name     string
}

// AccountingRule maps an origin and financial category to the debit and
// credit accounts used by automatic postings.
type AccountingRule struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	Origin          AccountingOrigin
	CategoryID      *uuid.UUID
	DebitAccountID  uuid.UUID
	CreditAccountID uuid.UUID
	Automatic       bool
	Active          bool
	Description     string
	DebitAccount    *LedgerAccount
	CreditAccount   *LedgerAccount
}

// Validate checks the rule can produce a balanced two-line entry
func (r *AccountingRule) Validate() error {
	if r.DebitAccountID == uuid.Nil || r.CreditAccountID == uuid.Nil {
		return shared.NewValidationError("accounting rule %s has no debit or credit account", r.ID)
	}
	if r.DebitAccountID == r.CreditAccountID {
		return shared.NewValidationError("accounting rule %s debits and credits the same account", r.ID)
	}
	if !r.Active || !r.Automatic {
		return shared.NewValidationError("accounting rule %s is not an active automatic rule", r.ID)
	}
	return nil
}
