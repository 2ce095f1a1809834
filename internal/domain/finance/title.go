package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TitleDirection distinguishes money to receive from money to pay
type TitleDirection string

const (
	TitleDirectionReceivable TitleDirection = "RECEIVABLE"
	TitleDirectionPayable    TitleDirection = "PAYABLE"
)

// ParseTitleDirection accepts the API spelling (receivable, payable) in any case
func ParseTitleDirection(s string) (TitleDirection, error) {
	d := TitleDirection(strings.ToUpper(strings.TrimSpace(s)))
	if !d.IsValid() {
		return "", shared.NewValidationError("direction must be receivable or payable, got %q", s)
	}
	return d, nil
}

// IsValid checks if the direction is known
func (d TitleDirection) IsValid() bool {
	return d == TitleDirectionReceivable || d == TitleDirectionPayable
}

func (d TitleDirection) String() string {
	return string(d)
}

// SettledStatus is the terminal status of a fully covered title
func (d TitleDirection) SettledStatus() TitleStatus {
	if d == TitleDirectionPayable {
		return TitleStatusPaid
	}
	return TitleStatusReceived
}

// TitleOrigin is the accounting origin used when the title itself is journaled
func (d TitleDirection) TitleOrigin() AccountingOrigin {
	if d == TitleDirectionPayable {
		return OriginPayable
	}
	return OriginReceivable
}

// SettlementOrigin is the accounting origin used when a payment against the title is journaled
func (d TitleDirection) SettlementOrigin() AccountingOrigin {
	if d == TitleDirectionPayable {
		return OriginPaymentMade
	}
	return OriginPaymentReceived
}

// TitleStatus is the settlement state of a title. Values are persisted as is.
type TitleStatus string

const (
	TitleStatusPending  TitleStatus = "pendente"
	TitleStatusPartial  TitleStatus = "parcial"
	TitleStatusReceived TitleStatus = "recebido"
	TitleStatusPaid     TitleStatus = "pago"
)

// IsValidFor checks the status against the title direction
func (s TitleStatus) IsValidFor(d TitleDirection) bool {
	switch s {
	case TitleStatusPending, TitleStatusPartial:
		return true
	case TitleStatusReceived:
		return d == TitleDirectionReceivable
	case TitleStatusPaid:
		return d == TitleDirectionPayable
	}
	return false
}

// IsSettled returns true for recebido and pago
func (s TitleStatus) IsSettled() bool {
	return s == TitleStatusReceived || s == TitleStatusPaid
}

// DeriveTitleStatus maps the paid total against the net amount
func DeriveTitleStatus(d TitleDirection, net, paid decimal.Decimal) TitleStatus {
	switch {
	case paid.GreaterThanOrEqual(net):
		return d.SettledStatus()
	case paid.GreaterThan(decimal.Zero):
		return TitleStatusPartial
	default:
		return TitleStatusPending
	}
}

// LedgerTitleLine is an itemized line of a title
type LedgerTitleLine struct {
	ID                 uuid.UUID
	TitleID            uuid.UUID
	LineType           string
	Description        string
	Quantity           decimal.Decimal
	UnitValue          decimal.Decimal
	GrossValue         decimal.Decimal
	Discount           decimal.Decimal
	Tax                decimal.Decimal
	NetValue           decimal.Decimal
	ProductOrServiceID *uuid.UUID
	BusinessUnitID     *uuid.UUID
}

const (
	LineTypeItem      = "item"
	LineTypeSynthetic = "total"
)

// LedgerTitle is a receivable or payable created from a commercial order.
// Its net amount is settled by one or more settlement lines.
type LedgerTitle struct {
	shared.TenantAggregateRoot
	Direction         TitleDirection
	SourceOrderID     uuid.UUID
	CounterpartyID    uuid.UUID
	CounterpartyName  string
	DocumentNumber    string
	DocumentType      string
	Status            TitleStatus
	IssueDate         time.Time
	LaunchDate        time.Time
	DueDate           time.Time
	GrossAmount       decimal.Decimal
	DiscountAmount    decimal.Decimal
	TaxAmount         decimal.Decimal
	NetAmount         decimal.Decimal
	PaidAmount        decimal.Decimal
	Note              string
	CategoryID        *uuid.UUID
	ProfitCenterID    *uuid.UUID
	BranchID          *uuid.UUID
	BusinessUnitID    *uuid.UUID
	AccountingEntryID *uuid.UUID
	Lines             []LedgerTitleLine
}

// TitleParams carries the values derived from the source order
type TitleParams struct {
	TenantID         uuid.UUID
	Direction        TitleDirection
	SourceOrderID    uuid.UUID
	CounterpartyID   uuid.UUID
	CounterpartyName string
	DocumentNumber   string
	DocumentType     string
	IssueDate        time.Time
	LaunchDate       time.Time
	DueDate          time.Time
	GrossAmount      decimal.Decimal
	DiscountAmount   decimal.Decimal
	TaxAmount        decimal.Decimal
	NetAmount        decimal.Decimal
	Note             string
	CategoryID       *uuid.UUID
	ProfitCenterID   *uuid.UUID
	BranchID         *uuid.UUID
	BusinessUnitID   *uuid.UUID
}

// NewLedgerTitle validates params, attaches lines and raises TitleCreatedEvent.
// At least one line is required; callers synthesize one when the order has no items.
func NewLedgerTitle(p TitleParams, lines []LedgerTitleLine) (*LedgerTitle, error) {
	if p.TenantID == uuid.Nil {
		return nil, shared.NewValidationError("tenant is required")
	}
	if !p.Direction.IsValid() {
		return nil, shared.NewValidationError("invalid title direction %q", p.Direction)
	}
	if p.CounterpartyID == uuid.Nil {
		return nil, shared.NewValidationError("counterparty is required")
	}
	doc := strings.TrimSpace(p.DocumentNumber)
	if doc == "" {
		return nil, shared.NewValidationError("document number is required")
	}
	if len(doc) > 60 {
		return nil, shared.NewValidationError("document number cannot exceed 60 characters")
	}
	if !p.NetAmount.IsPositive() {
		return nil, shared.NewValidationError("net amount must be positive, got %s", p.NetAmount.StringFixed(2))
	}
	if len(lines) == 0 {
		return nil, shared.NewValidationError("title requires at least one line")
	}

	t := &LedgerTitle{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(p.TenantID),
		Direction:           p.Direction,
		SourceOrderID:       p.SourceOrderID,
		CounterpartyID:      p.CounterpartyID,
		CounterpartyName:    p.CounterpartyName,
		DocumentNumber:      doc,
		DocumentType:        p.DocumentType,
		Status:              TitleStatusPending,
		IssueDate:           DateOnly(p.IssueDate),
		LaunchDate:          DateOnly(p.LaunchDate),
		DueDate:             DateOnly(p.DueDate),
		GrossAmount:         p.GrossAmount,
		DiscountAmount:      p.DiscountAmount,
		TaxAmount:           p.TaxAmount,
		NetAmount:           p.NetAmount,
		PaidAmount:          decimal.Zero,
		Note:                p.Note,
		CategoryID:          p.CategoryID,
		ProfitCenterID:      p.ProfitCenterID,
		BranchID:            p.BranchID,
		BusinessUnitID:      p.BusinessUnitID,
	}
	t.Lines = make([]LedgerTitleLine, len(lines))
	for i, l := range lines {
		if l.ID == uuid.Nil {
			l.ID = uuid.New()
		}
		l.TitleID = t.ID
		t.Lines[i] = l
	}

	t.AddDomainEvent(NewTitleCreatedEvent(t))
	return t, nil
}

// Pending returns the outstanding balance given the sum of recorded settlement lines
func (t *LedgerTitle) Pending(settled decimal.Decimal) decimal.Decimal {
	return t.NetAmount.Sub(settled)
}

// SettlementOutcome describes the effect of one settlement on a title
type SettlementOutcome struct {
	Amount       decimal.Decimal
	PriorPaid    decimal.Decimal
	PaidTotal    decimal.Decimal
	BalanceAfter decimal.Decimal
	StatusBefore TitleStatus
	StatusAfter  TitleStatus
}

// ApplySettlement records a payment of amount on top of the already settled
// total. A nil amount settles the whole pending balance. The title must have
// been loaded under a row lock.
func (t *LedgerTitle) ApplySettlement(settled decimal.Decimal, amount *decimal.Decimal) (SettlementOutcome, error) {
	pending := t.Pending(settled)
	if !pending.IsPositive() {
		return SettlementOutcome{}, shared.NewDomainError(shared.CodeAlreadySettled,
			fmt.Sprintf("title %s has no pending balance", t.DocumentNumber))
	}

	pay := pending
	if amount != nil {
		if !amount.IsPositive() {
			return SettlementOutcome{}, shared.NewValidationError("settlement amount must be positive")
		}
		if amount.GreaterThan(pending) {
			return SettlementOutcome{}, shared.NewValidationError("settlement amount %s exceeds pending balance %s",
				amount.StringFixed(2), pending.StringFixed(2))
		}
		pay = *amount
	}

	paid := settled.Add(pay)
	balance := t.NetAmount.Sub(paid)
	if balance.IsNegative() {
		balance = decimal.Zero
	}

	out := SettlementOutcome{
		Amount:       pay,
		PriorPaid:    settled,
		PaidTotal:    paid,
		BalanceAfter: balance,
		StatusBefore: t.Status,
		StatusAfter:  DeriveTitleStatus(t.Direction, t.NetAmount, paid),
	}

	t.PaidAmount = paid
	t.Status = out.StatusAfter
	t.Touch()
	t.IncrementVersion()
	return out, nil
}

// LinkAccountingEntry records the journal entry that mirrors this title
func (t *LedgerTitle) LinkAccountingEntry(entryID uuid.UUID) error {
	if t.AccountingEntryID != nil {
		if *t.AccountingEntryID == entryID {
			return nil
		}
		return shared.NewDomainError(shared.CodeConflict,
			fmt.Sprintf("title %s is already linked to entry %s", t.DocumentNumber, *t.AccountingEntryID))
	}
	t.AccountingEntryID = &entryID
	t.Touch()
	return nil
}

// DateOnly truncates t to calendar-date granularity
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
