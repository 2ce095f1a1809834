package finance

import (
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountingOrigin identifies what kind of document produced a journal entry
type AccountingOrigin string

const (
	OriginReceivable      AccountingOrigin = "conta_a_receber"
	OriginPayable         AccountingOrigin = "conta_a_pagar"
	OriginPaymentReceived AccountingOrigin = "pagamento_recebido"
	OriginPaymentMade     AccountingOrigin = "pagamento_efetuado"
)

// IsValid checks if the origin is known
func (o AccountingOrigin) IsValid() bool {
	switch o {
	case OriginReceivable, OriginPayable, OriginPaymentReceived, OriginPaymentMade:
		return true
	}
	return false
}

// AccountingEntryLine is one side of a journal posting. Exactly one of
// Debit and Credit is non-zero.
type AccountingEntryLine struct {
	ID        uuid.UUID
	EntryID   uuid.UUID
	AccountID uuid.UUID
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	History   string
}

// DebitLine builds a debit line
func DebitLine(accountID uuid.UUID, amount decimal.Decimal, history string) AccountingEntryLine {
	return AccountingEntryLine{ID: uuid.New(), AccountID: accountID, Debit: amount, Credit: decimal.Zero, History: history}
}

// CreditLine builds a credit line
func CreditLine(accountID uuid.UUID, amount decimal.Decimal, history string) AccountingEntryLine {
	return AccountingEntryLine{ID: uuid.New(), AccountID: accountID, Debit: decimal.Zero, Credit: amount, History: history}
}

func (l AccountingEntryLine) validate() error {
	if l.AccountID == uuid.Nil {
		return shared.NewValidationError("journal line requires an account")
	}
	if l.Debit.IsNegative() || l.Credit.IsNegative() {
		return shared.NewValidationError("journal line amounts cannot be negative")
	}
	if l.Debit.IsZero() == l.Credit.IsZero() {
		return shared.NewValidationError("journal line must carry exactly one of debit or credit")
	}
	return nil
}

// AccountingEntry is a double-entry journal posting linked to its source document
type AccountingEntry struct {
	shared.TenantAggregateRoot
	OriginTable        AccountingOrigin
	SourceID           uuid.UUID
	DocumentNumber     string
	History            string
	EntryDate          time.Time
	TotalDebits        decimal.Decimal
	TotalCredits       decimal.Decimal
	CounterpartyID     *uuid.UUID
	FinancialAccountID *uuid.UUID
	Lines              []AccountingEntryLine
}

// EntryParams describes the journal header
type EntryParams struct {
	TenantID           uuid.UUID
	Origin             AccountingOrigin
	SourceID           uuid.UUID
	DocumentNumber     string
	History            string
	EntryDate          time.Time
	CounterpartyID     *uuid.UUID
	FinancialAccountID *uuid.UUID
}

// NewAccountingEntry builds a journal entry and rejects it unless the sum of
// debits equals the sum of credits exactly. Amounts are never rounded.
func NewAccountingEntry(p EntryParams, lines []AccountingEntryLine) (*AccountingEntry, error) {
	if p.TenantID == uuid.Nil {
		return nil, shared.NewValidationError("tenant is required")
	}
	if !p.Origin.IsValid() {
		return nil, shared.NewValidationError("invalid accounting origin %q", p.Origin)
	}
	if p.SourceID == uuid.Nil {
		return nil, shared.NewValidationError("journal entry requires a source document")
	}
	if len(lines) < 2 {
		return nil, shared.NewValidationError("journal entry requires at least two lines")
	}

	debits, credits := decimal.Zero, decimal.Zero
	for _, l := range lines {
		if err := l.validate(); err != nil {
			return nil, err
		}
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}
	if !debits.Equal(credits) {
		return nil, &shared.DomainError{
			Code:    shared.CodeUnbalanced,
			Message: fmt.Sprintf("debits %s differ from credits %s", debits.String(), credits.String()),
		}
	}

	e := &AccountingEntry{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(p.TenantID),
		OriginTable:         p.Origin,
		SourceID:            p.SourceID,
		DocumentNumber:      p.DocumentNumber,
		History:             p.History,
		EntryDate:           DateOnly(p.EntryDate),
		TotalDebits:         debits,
		TotalCredits:        credits,
		CounterpartyID:      p.CounterpartyID,
		FinancialAccountID:  p.FinancialAccountID,
	}
	e.Lines = make([]AccountingEntryLine, len(lines))
	for i, l := range lines {
		if l.ID == uuid.Nil {
			l.ID = uuid.New()
		}
		l.EntryID = e.ID
		e.Lines[i] = l
	}
	return e, nil
}

// IsBalanced recomputes the line sums
func (e *AccountingEntry) IsBalanced() bool {
	return SumLines(e.Lines).Balanced()
}

// LineTotals are the debit and credit sums of a line set
type LineTotals struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// Balanced reports Debit == Credit
func (t LineTotals) Balanced() bool {
	return t.Debit.Equal(t.Credit)
}

// SumLines totals a set of journal lines
func SumLines(lines []AccountingEntryLine) LineTotals {
	out := LineTotals{Debit: decimal.Zero, Credit: decimal.Zero}
	for _, l := range lines {
		out.Debit = out.Debit.Add(l.Debit)
		out.Credit = out.Credit.Add(l.Credit)
	}
	return out
}
