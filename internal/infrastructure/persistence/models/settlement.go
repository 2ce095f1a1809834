package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettlementHeaderModel maps settlement_headers
type SettlementHeaderModel struct {
	TenantAggregateModel
	Direction          finance.TitleDirection `gorm:"type:varchar(20);not null;index"`
	PaymentNumber      string                 `gorm:"type:varchar(40);not null;index"`
	Status             finance.TitleStatus    `gorm:"type:varchar(20);not null"`
	SettlementDate     time.Time              `gorm:"type:date;not null"`
	LaunchDate         time.Time              `gorm:"type:date;not null"`
	FinancialAccountID *uuid.UUID             `gorm:"type:uuid"`
	PaymentMethodID    *uuid.UUID             `gorm:"type:uuid"`
	TotalAmount        decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	Note               string                 `gorm:"type:varchar(255)"`
	AttachmentKey      *string                `gorm:"type:varchar(500)"`

	Lines []SettlementLineModel `gorm:"foreignKey:SettlementID;references:ID"`
}

// TableName returns the table name for GORM
func (SettlementHeaderModel) TableName() string {
	return "settlement_headers"
}

// ToDomain converts the model to a finance.SettlementHeader
func (m *SettlementHeaderModel) ToDomain() *finance.SettlementHeader {
	h := &finance.SettlementHeader{
		Direction:          m.Direction,
		PaymentNumber:      m.PaymentNumber,
		Status:             m.Status,
		SettlementDate:     m.SettlementDate,
		LaunchDate:         m.LaunchDate,
		FinancialAccountID: m.FinancialAccountID,
		PaymentMethodID:    m.PaymentMethodID,
		TotalAmount:        m.TotalAmount,
		Note:               m.Note,
		AttachmentKey:      m.AttachmentKey,
	}
	m.PopulateTenantAggregateRoot(&h.TenantAggregateRoot)
	h.Lines = make([]finance.SettlementLine, len(m.Lines))
	for i := range m.Lines {
		h.Lines[i] = m.Lines[i].ToDomain()
	}
	return h
}

// SettlementHeaderModelFromDomain creates a new persistence model from a domain SettlementHeader
func SettlementHeaderModelFromDomain(h *finance.SettlementHeader) *SettlementHeaderModel {
	m := &SettlementHeaderModel{
		Direction:          h.Direction,
		PaymentNumber:      h.PaymentNumber,
		Status:             h.Status,
		SettlementDate:     h.SettlementDate,
		LaunchDate:         h.LaunchDate,
		FinancialAccountID: h.FinancialAccountID,
		PaymentMethodID:    h.PaymentMethodID,
		TotalAmount:        h.TotalAmount,
		Note:               h.Note,
		AttachmentKey:      h.AttachmentKey,
	}
	m.FromDomainTenantAggregateRoot(h.TenantAggregateRoot)
	m.Lines = make([]SettlementLineModel, len(h.Lines))
	for i, l := range h.Lines {
		m.Lines[i] = SettlementLineModel{
			ID:                    l.ID,
			TenantID:              h.TenantID,
			SettlementID:          h.ID,
			TitleID:               l.TitleID,
			OriginalDocumentValue: l.OriginalDocumentValue,
			PaidValue:             l.PaidValue,
			BalanceAfter:          l.BalanceAfter,
			Discount:              l.Discount,
			Interest:              l.Interest,
			Fine:                  l.Fine,
			CreatedAt:             h.CreatedAt,
		}
	}
	return m
}

// SettlementLineModel maps settlement_lines
type SettlementLineModel struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID              uuid.UUID       `gorm:"type:uuid;not null;index:idx_settlement_line_tenant_title,priority:1"`
	SettlementID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	TitleID               uuid.UUID       `gorm:"type:uuid;not null;index:idx_settlement_line_tenant_title,priority:2"`
	OriginalDocumentValue decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PaidValue             decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BalanceAfter          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Discount              decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Interest              decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Fine                  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt             time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SettlementLineModel) TableName() string {
	return "settlement_lines"
}

// ToDomain converts the model to a finance.SettlementLine
func (m *SettlementLineModel) ToDomain() finance.SettlementLine {
	return finance.SettlementLine{
		ID:                    m.ID,
		SettlementID:          m.SettlementID,
		TitleID:               m.TitleID,
		OriginalDocumentValue: m.OriginalDocumentValue,
		PaidValue:             m.PaidValue,
		BalanceAfter:          m.BalanceAfter,
		Discount:              m.Discount,
		Interest:              m.Interest,
		Fine:                  m.Fine,
	}
}

// FinancialAccountModel maps financial_accounts (bank and cash accounts)
type FinancialAccountModel struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name     string    `gorm:"type:varchar(200);not null"`
}

// TableName returns the table name for GORM
func (FinancialAccountModel) TableName() string {
	return "financial_accounts"
}

// PaymentMethodModel maps payment_methods
type PaymentMethodModel struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name     string    `gorm:"type:varchar(100);not null"`
}

// TableName returns the table name for GORM
func (PaymentMethodModel) TableName() string {
	return "payment_methods"
}

// AllModels lists every model in migration order. Used by AutoMigrate in
// tests and by the schema capability check.
func AllModels() []any {
	return []any{
		&CommercialOrderModel{},
		&CommercialOrderItemModel{},
		&LedgerAccountModel{},
		&AccountingRuleModel{},
		&LedgerTitleModel{},
		&LedgerTitleLineModel{},
		&AccountingEntryModel{},
		&AccountingEntryLineModel{},
		&SettlementHeaderModel{},
		&SettlementLineModel{},
		&FinancialAccountModel{},
		&PaymentMethodModel{},
		&OutboxEntryModel{},
	}
}
