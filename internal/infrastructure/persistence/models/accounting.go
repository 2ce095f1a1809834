package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerAccountModel maps ledger_accounts (chart of accounts, read-only here)
type LedgerAccountModel struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	Code     string    `gorm:"type:varchar(30);not null"`
	Name     string    `gorm:"type:varchar(200);not null"`
}

// TableName returns the table name for GORM
func (LedgerAccountModel) TableName() string {
	return "ledger_accounts"
}

// ToDomain converts the model to a finance.LedgerAccount
func (m *LedgerAccountModel) ToDomain() *finance.LedgerAccount {
	return &finance.LedgerAccount{ID: m.ID, TenantID: m.TenantID, Code: m.Code, Name: m.Name}
}

// AccountingRuleModel maps accounting_rules
type AccountingRuleModel struct {
	ID              uuid.UUID                `gorm:"type:uuid;primaryKey"`
	TenantID        uuid.UUID                `gorm:"type:uuid;not null;index:idx_accounting_rule_lookup,priority:1"`
	Origin          finance.AccountingOrigin `gorm:"type:varchar(40);not null;index:idx_accounting_rule_lookup,priority:2"`
	CategoryID      *uuid.UUID               `gorm:"type:uuid;index:idx_accounting_rule_lookup,priority:3"`
	DebitAccountID  uuid.UUID                `gorm:"type:uuid;not null"`
	CreditAccountID uuid.UUID                `gorm:"type:uuid;not null"`
	Automatic       bool                     `gorm:"not null;default:true"`
	Active          bool                     `gorm:"not null;default:true"`
	Description     string                   `gorm:"type:varchar(255)"`
	CreatedAt       time.Time                `gorm:"not null"`

	DebitAccount  *LedgerAccountModel `gorm:"foreignKey:DebitAccountID;references:ID"`
	CreditAccount *LedgerAccountModel `gorm:"foreignKey:CreditAccountID;references:ID"`
}

// TableName returns the table name for GORM
func (AccountingRuleModel) TableName() string {
	return "accounting_rules"
}

// ToDomain converts the model to a finance.AccountingRule
func (m *AccountingRuleModel) ToDomain() *finance.AccountingRule {
	r := &finance.AccountingRule{
		ID:              m.ID,
		TenantID:        m.TenantID,
		Origin:          m.Origin,
		CategoryID:      m.CategoryID,
		DebitAccountID:  m.DebitAccountID,
		CreditAccountID: m.CreditAccountID,
		Automatic:       m.Automatic,
		Active:          m.Active,
		Description:     m.Description,
	}
	if m.DebitAccount != nil {
		r.DebitAccount = m.DebitAccount.ToDomain()
	}
	if m.CreditAccount != nil {
		r.CreditAccount = m.CreditAccount.ToDomain()
	}
	return r
}

// AccountingEntryModel maps accounting_entries. One entry per source
// document: (tenant_id, origin_table, source_id) is unique.
type AccountingEntryModel struct {
	ID                 uuid.UUID                `gorm:"type:uuid;primaryKey"`
	TenantID           uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex:idx_accounting_entry_source,priority:1"`
	OriginTable        finance.AccountingOrigin `gorm:"type:varchar(40);not null;uniqueIndex:idx_accounting_entry_source,priority:2"`
	SourceID           uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex:idx_accounting_entry_source,priority:3"`
	Version            int                      `gorm:"not null;default:1"`
	DocumentNumber     string                   `gorm:"type:varchar(60)"`
	History            string                   `gorm:"type:varchar(500)"`
	EntryDate          time.Time                `gorm:"type:date;not null"`
	TotalDebits        decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	TotalCredits       decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	CounterpartyID     *uuid.UUID               `gorm:"type:uuid"`
	FinancialAccountID *uuid.UUID               `gorm:"type:uuid"`
	CreatedAt          time.Time                `gorm:"not null"`
	UpdatedAt          time.Time                `gorm:"not null"`

	Lines []AccountingEntryLineModel `gorm:"foreignKey:EntryID;references:ID"`
}

// TableName returns the table name for GORM
func (AccountingEntryModel) TableName() string {
	return "accounting_entries"
}

// ToDomain converts the model to a finance.AccountingEntry
func (m *AccountingEntryModel) ToDomain() *finance.AccountingEntry {
	e := &finance.AccountingEntry{
		OriginTable:        m.OriginTable,
		SourceID:           m.SourceID,
		DocumentNumber:     m.DocumentNumber,
		History:            m.History,
		EntryDate:          m.EntryDate,
		TotalDebits:        m.TotalDebits,
		TotalCredits:       m.TotalCredits,
		CounterpartyID:     m.CounterpartyID,
		FinancialAccountID: m.FinancialAccountID,
	}
	e.ID = m.ID
	e.TenantID = m.TenantID
	e.Version = m.Version
	e.CreatedAt = m.CreatedAt
	e.UpdatedAt = m.UpdatedAt
	e.Lines = make([]finance.AccountingEntryLine, len(m.Lines))
	for i := range m.Lines {
		e.Lines[i] = m.Lines[i].ToDomain()
	}
	return e
}

// AccountingEntryModelFromDomain creates a new persistence model from a domain AccountingEntry
func AccountingEntryModelFromDomain(e *finance.AccountingEntry) *AccountingEntryModel {
	m := &AccountingEntryModel{
		ID:                 e.ID,
		TenantID:           e.TenantID,
		OriginTable:        e.OriginTable,
		SourceID:           e.SourceID,
		Version:            e.Version,
		DocumentNumber:     e.DocumentNumber,
		History:            e.History,
		EntryDate:          e.EntryDate,
		TotalDebits:        e.TotalDebits,
		TotalCredits:       e.TotalCredits,
		CounterpartyID:     e.CounterpartyID,
		FinancialAccountID: e.FinancialAccountID,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
	m.Lines = make([]AccountingEntryLineModel, len(e.Lines))
	for i, l := range e.Lines {
		m.Lines[i] = AccountingEntryLineModel{
			ID:        l.ID,
			TenantID:  e.TenantID,
			EntryID:   e.ID,
			AccountID: l.AccountID,
			Debit:     l.Debit,
			Credit:    l.Credit,
			History:   l.History,
		}
	}
	return m
}

// AccountingEntryLineModel maps accounting_entry_lines
type AccountingEntryLineModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	EntryID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	AccountID uuid.UUID       `gorm:"type:uuid;not null"`
	Debit     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Credit    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	History   string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (AccountingEntryLineModel) TableName() string {
	return "accounting_entry_lines"
}

// ToDomain converts the model to a finance.AccountingEntryLine
func (m *AccountingEntryLineModel) ToDomain() finance.AccountingEntryLine {
	return finance.AccountingEntryLine{
		ID:        m.ID,
		EntryID:   m.EntryID,
		AccountID: m.AccountID,
		Debit:     m.Debit,
		Credit:    m.Credit,
		History:   m.History,
	}
}
