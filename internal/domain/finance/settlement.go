package finance

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxSettlementNoteLength = 255

// SettlementLine applies part of a settlement header to one title
type SettlementLine struct {
	ID                    uuid.UUID
	SettlementID          uuid.UUID
	TitleID               uuid.UUID
	OriginalDocumentValue decimal.Decimal
	PaidValue             decimal.Decimal
	BalanceAfter          decimal.Decimal
	Discount              decimal.Decimal
	Interest              decimal.Decimal
	Fine                  decimal.Decimal
}

// SettlementHeader records money received or paid. Title settlements carry
// exactly one line; header-only settlements carry none.
type SettlementHeader struct {
	shared.TenantAggregateRoot
	Direction          TitleDirection
	PaymentNumber      string
	Status             TitleStatus
	SettlementDate     time.Time
	LaunchDate         time.Time
	FinancialAccountID *uuid.UUID
	PaymentMethodID    *uuid.UUID
	TotalAmount        decimal.Decimal
	Note               string
	AttachmentKey      *string
	Lines              []SettlementLine
}

// TitleSettlementParams carries the caller supplied fields of a title settlement
type TitleSettlementParams struct {
	FinancialAccountID *uuid.UUID
	PaymentMethodID    *uuid.UUID
	Description        string
	SettlementDate     time.Time
	AttachmentKey      *string
}

// NewTitleSettlement builds the header and single line for an outcome
// produced by LedgerTitle.ApplySettlement.
func NewTitleSettlement(title *LedgerTitle, out SettlementOutcome, p TitleSettlementParams) (*SettlementHeader, error) {
	if title == nil {
		return nil, shared.NewValidationError("title is required")
	}
	if !out.Amount.IsPositive() {
		return nil, shared.NewValidationError("settlement amount must be positive")
	}
	date := p.SettlementDate
	if date.IsZero() {
		date = time.Now()
	}
	date = DateOnly(date)

	h := &SettlementHeader{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(title.TenantID),
		Direction:           title.Direction,
		PaymentNumber:       GeneratePaymentNumber(title.Direction, date),
		Status:              title.Direction.SettledStatus(),
		SettlementDate:      date,
		LaunchDate:          date,
		FinancialAccountID:  p.FinancialAccountID,
		PaymentMethodID:     p.PaymentMethodID,
		TotalAmount:         out.Amount,
		Note:                SettlementNote(title.Direction, title.DocumentNumber, p.Description),
		AttachmentKey:       p.AttachmentKey,
	}
	h.Lines = []SettlementLine{{
		ID:                    uuid.New(),
		SettlementID:          h.ID,
		TitleID:               title.ID,
		OriginalDocumentValue: title.NetAmount,
		PaidValue:             out.Amount,
		BalanceAfter:          out.BalanceAfter,
		Discount:              decimal.Zero,
		Interest:              decimal.Zero,
		Fine:                  decimal.Zero,
	}}

	titleID := title.ID
	h.AddDomainEvent(NewSettlementRecordedEvent(h, &titleID, out.StatusAfter))
	return h, nil
}

// FreeSettlementParams describes a header-only settlement
type FreeSettlementParams struct {
	TenantID           uuid.UUID
	Direction          TitleDirection
	Description        string
	Amount             decimal.Decimal
	LaunchDate         time.Time
	FinancialAccountID *uuid.UUID
	PaymentMethodID    *uuid.UUID
	Status             TitleStatus
}

// NewFreeSettlementHeader records a payment not linked to any title
func NewFreeSettlementHeader(p FreeSettlementParams) (*SettlementHeader, error) {
	if p.TenantID == uuid.Nil {
		return nil, shared.NewValidationError("tenant is required")
	}
	if !p.Direction.IsValid() {
		return nil, shared.NewValidationError("invalid settlement direction %q", p.Direction)
	}
	desc := strings.TrimSpace(p.Description)
	if desc == "" {
		return nil, shared.NewValidationError("description is required")
	}
	if p.Amount.IsZero() {
		return nil, shared.NewValidationError("amount is required")
	}
	if p.LaunchDate.IsZero() {
		return nil, shared.NewValidationError("launch date is required")
	}
	status := p.Status
	if status == "" {
		status = p.Direction.SettledStatus()
	}
	if !status.IsValidFor(p.Direction) {
		return nil, shared.NewValidationError("status %q is not valid for %s settlements", status, strings.ToLower(p.Direction.String()))
	}

	date := DateOnly(p.LaunchDate)
	h := &SettlementHeader{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(p.TenantID),
		Direction:           p.Direction,
		PaymentNumber:       GeneratePaymentNumber(p.Direction, date),
		Status:              status,
		SettlementDate:      date,
		LaunchDate:          date,
		FinancialAccountID:  p.FinancialAccountID,
		PaymentMethodID:     p.PaymentMethodID,
		TotalAmount:         p.Amount.Abs(),
		Note:                truncateRunes(desc, maxSettlementNoteLength),
	}
	h.AddDomainEvent(NewSettlementRecordedEvent(h, nil, status))
	return h, nil
}

// IsHeaderOnly reports whether the settlement is unlinked to any title
func (h *SettlementHeader) IsHeaderOnly() bool {
	return len(h.Lines) == 0
}

// GeneratePaymentNumber returns PR-YYYYMMDD-XXXXXX for receipts and
// PP-YYYYMMDD-XXXXXX for payments.
func GeneratePaymentNumber(d TitleDirection, date time.Time) string {
	prefix := "PR"
	if d == TitleDirectionPayable {
		prefix = "PP"
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("%s-%s-%s", prefix, date.Format("20060102"), suffix)
}

// SettlementNote builds "Recebimento <doc> - <description>" (or Pagamento)
// truncated to the column size.
func SettlementNote(d TitleDirection, documentNumber, description string) string {
	verb := "Recebimento"
	if d == TitleDirectionPayable {
		verb = "Pagamento"
	}
	note := verb + " " + documentNumber
	if desc := strings.TrimSpace(description); desc != "" {
		note += " - " + desc
	}
	return truncateRunes(note, maxSettlementNoteLength)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
