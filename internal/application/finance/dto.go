package finance

import (
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PostOrderResult is returned by PostOrderToLedger. Created is false when the
// order had already been posted and TitleID points at the existing title.
type PostOrderResult struct {
	TitleID        uuid.UUID `json:"title_id"`
	DocumentNumber string    `json:"document_number"`
	Created        bool      `json:"created"`
}

// PostJournalResult is returned by the accounting poster
type PostJournalResult struct {
	EntryID uuid.UUID `json:"entry_id"`
	Created bool      `json:"created"`
}

// SettleTitleInput describes a payment against one title
type SettleTitleInput struct {
	TenantID           uuid.UUID
	TitleID            uuid.UUID
	FinancialAccountID *uuid.UUID
	PaymentMethodID    *uuid.UUID
	Description        string
	Amount             *decimal.Decimal
	SettlementDate     *time.Time
	Attachment         *Attachment
}

// SettlementResult is the denormalized view of a recorded settlement
type SettlementResult struct {
	ID                   uuid.UUID           `json:"id"`
	TitleID              uuid.UUID           `json:"title_id"`
	PaymentNumber        string              `json:"payment_number"`
	PaidValue            decimal.Decimal     `json:"paid_value"`
	TotalValue           decimal.Decimal     `json:"total_value"`
	BalanceAfter         decimal.Decimal     `json:"balance_after"`
	SettlementDate       time.Time           `json:"settlement_date"`
	PaymentMethodName    string              `json:"payment_method_name"`
	FinancialAccountName string              `json:"financial_account_name"`
	CounterpartyName     string              `json:"counterparty_name"`
	StatusBefore         finance.TitleStatus `json:"status_before"`
	StatusAfter          finance.TitleStatus `json:"status_after"`
	AttachmentKey        *string             `json:"attachment_key,omitempty"`
	Summary              SettlementSummary   `json:"-"`
}

// SettlementSummary is the human readable block returned with a settlement
type SettlementSummary struct {
	DocumentNumber   string `json:"document_number"`
	FormattedValue   string `json:"formatted_value"`
	Date             string `json:"date"`
	PaymentMethod    string `json:"payment_method"`
	FinancialAccount string `json:"financial_account"`
	Counterparty     string `json:"counterparty"`
	Status           string `json:"status"`
}

// FreeSettlementInput describes a header-only settlement
type FreeSettlementInput struct {
	TenantID           uuid.UUID
	Direction          finance.TitleDirection
	Description        string
	Amount             decimal.Decimal
	LaunchDate         time.Time
	FinancialAccountID *uuid.UUID
	PaymentMethodID    *uuid.UUID
	Status             finance.TitleStatus
}

// FreeSettlementResult identifies the created header
type FreeSettlementResult struct {
	ID            uuid.UUID `json:"id"`
	PaymentNumber string    `json:"payment_number"`
}

// TitleView is a read model of a title with its lines
type TitleView struct {
	ID                uuid.UUID              `json:"id"`
	Direction         finance.TitleDirection `json:"direction"`
	SourceOrderID     uuid.UUID              `json:"source_order_id"`
	CounterpartyID    uuid.UUID              `json:"counterparty_id"`
	CounterpartyName  string                 `json:"counterparty_name"`
	DocumentNumber    string                 `json:"document_number"`
	DocumentType      string                 `json:"document_type"`
	Status            finance.TitleStatus    `json:"status"`
	IssueDate         time.Time              `json:"issue_date"`
	LaunchDate        time.Time              `json:"launch_date"`
	DueDate           time.Time              `json:"due_date"`
	GrossAmount       decimal.Decimal        `json:"gross_amount"`
	DiscountAmount    decimal.Decimal        `json:"discount_amount"`
	TaxAmount         decimal.Decimal        `json:"tax_amount"`
	NetAmount         decimal.Decimal        `json:"net_amount"`
	PaidAmount        decimal.Decimal        `json:"paid_amount"`
	PendingAmount     decimal.Decimal        `json:"pending_amount"`
	Note              string                 `json:"note"`
	AccountingEntryID *uuid.UUID             `json:"accounting_entry_id,omitempty"`
	Version           int                    `json:"version"`
	Lines             []TitleLineView        `json:"lines"`
	Settlements       []SettlementLineView   `json:"settlements"`
}

// TitleLineView is one title line
type TitleLineView struct {
	ID                 uuid.UUID       `json:"id"`
	LineType           string          `json:"line_type"`
	Description        string          `json:"description"`
	Quantity           decimal.Decimal `json:"quantity"`
	UnitValue          decimal.Decimal `json:"unit_value"`
	GrossValue         decimal.Decimal `json:"gross_value"`
	Discount           decimal.Decimal `json:"discount"`
	Tax                decimal.Decimal `json:"tax"`
	NetValue           decimal.Decimal `json:"net_value"`
	ProductOrServiceID *uuid.UUID      `json:"product_or_service_id,omitempty"`
}

// SettlementLineView is one settlement line applied to a title
type SettlementLineView struct {
	ID           uuid.UUID       `json:"id"`
	SettlementID uuid.UUID       `json:"settlement_id"`
	PaidValue    decimal.Decimal `json:"paid_value"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
}

// ToTitleView converts a title and its settlement lines to a read model
func ToTitleView(t *finance.LedgerTitle, settlements []finance.SettlementLine) TitleView {
	paid := decimal.Zero
	sv := make([]SettlementLineView, 0, len(settlements))
	for _, s := range settlements {
		paid = paid.Add(s.PaidValue)
		sv = append(sv, SettlementLineView{
			ID:           s.ID,
			SettlementID: s.SettlementID,
			PaidValue:    s.PaidValue,
			BalanceAfter: s.BalanceAfter,
		})
	}
	pending := t.Pending(paid)
	if pending.IsNegative() {
		pending = decimal.Zero
	}

	lines := make([]TitleLineView, 0, len(t.Lines))
	for _, l := range t.Lines {
		lines = append(lines, TitleLineView{
			ID:                 l.ID,
			LineType:           l.LineType,
			Description:        l.Description,
			Quantity:           l.Quantity,
			UnitValue:          l.UnitValue,
			GrossValue:         l.GrossValue,
			Discount:           l.Discount,
			Tax:                l.Tax,
			NetValue:           l.NetValue,
			ProductOrServiceID: l.ProductOrServiceID,
		})
	}

	return TitleView{
		ID:                t.ID,
		Direction:         t.Direction,
		SourceOrderID:     t.SourceOrderID,
		CounterpartyID:    t.CounterpartyID,
		CounterpartyName:  t.CounterpartyName,
		DocumentNumber:    t.DocumentNumber,
		DocumentType:      t.DocumentType,
		Status:            t.Status,
		IssueDate:         t.IssueDate,
		LaunchDate:        t.LaunchDate,
		DueDate:           t.DueDate,
		GrossAmount:       t.GrossAmount,
		DiscountAmount:    t.DiscountAmount,
		TaxAmount:         t.TaxAmount,
		NetAmount:         t.NetAmount,
		PaidAmount:        t.PaidAmount,
		PendingAmount:     pending,
		Note:              t.Note,
		AccountingEntryID: t.AccountingEntryID,
		Version:           t.Version,
		Lines:             lines,
		Settlements:       sv,
	}
}
