package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerTitleModel maps ledger_titles. (tenant_id, direction, document_number)
// is unique and backs the posting idempotency check.
type LedgerTitleModel struct {
	ID                uuid.UUID              `gorm:"type:uuid;primaryKey"`
	TenantID          uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_title_tenant_direction_number,priority:1;index:idx_ledger_title_tenant_source,priority:1"`
	Version           int                    `gorm:"not null;default:1"`
	CreatedAt         time.Time              `gorm:"not null"`
	UpdatedAt         time.Time              `gorm:"not null"`
	Direction         finance.TitleDirection `gorm:"type:varchar(20);not null;uniqueIndex:idx_ledger_title_tenant_direction_number,priority:2"`
	DocumentNumber    string                 `gorm:"type:varchar(60);not null;uniqueIndex:idx_ledger_title_tenant_direction_number,priority:3"`
	DocumentType      string                 `gorm:"type:varchar(30)"`
	SourceOrderID     uuid.UUID              `gorm:"type:uuid;not null;index:idx_ledger_title_tenant_source,priority:2"`
	CounterpartyID    uuid.UUID              `gorm:"type:uuid;not null;index"`
	CounterpartyName  string                 `gorm:"type:varchar(200)"`
	Status            finance.TitleStatus    `gorm:"type:varchar(20);not null;default:'pendente';index"`
	IssueDate         time.Time              `gorm:"type:date;not null"`
	LaunchDate        time.Time              `gorm:"type:date;not null"`
	DueDate           time.Time              `gorm:"type:date;not null;index"`
	GrossAmount       decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	DiscountAmount    decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	TaxAmount         decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	NetAmount         decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	PaidAmount        decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	Note              string                 `gorm:"type:text"`
	CategoryID        *uuid.UUID             `gorm:"type:uuid"`
	ProfitCenterID    *uuid.UUID             `gorm:"type:uuid"`
	BranchID          *uuid.UUID             `gorm:"type:uuid"`
	BusinessUnitID    *uuid.UUID             `gorm:"type:uuid"`
	AccountingEntryID *uuid.UUID             `gorm:"type:uuid;index"`

	Lines []LedgerTitleLineModel `gorm:"foreignKey:TitleID;references:ID"`
}

// TableName returns the table name for GORM
func (LedgerTitleModel) TableName() string {
	return "ledger_titles"
}

// ToDomain converts the model to a finance.LedgerTitle
func (m *LedgerTitleModel) ToDomain() *finance.LedgerTitle {
	t := &finance.LedgerTitle{
		Direction:         m.Direction,
		SourceOrderID:     m.SourceOrderID,
		CounterpartyID:    m.CounterpartyID,
		CounterpartyName:  m.CounterpartyName,
		DocumentNumber:    m.DocumentNumber,
		DocumentType:      m.DocumentType,
		Status:            m.Status,
		IssueDate:         m.IssueDate,
		LaunchDate:        m.LaunchDate,
		DueDate:           m.DueDate,
		GrossAmount:       m.GrossAmount,
		DiscountAmount:    m.DiscountAmount,
		TaxAmount:         m.TaxAmount,
		NetAmount:         m.NetAmount,
		PaidAmount:        m.PaidAmount,
		Note:              m.Note,
		CategoryID:        m.CategoryID,
		ProfitCenterID:    m.ProfitCenterID,
		BranchID:          m.BranchID,
		BusinessUnitID:    m.BusinessUnitID,
		AccountingEntryID: m.AccountingEntryID,
	}
	t.ID = m.ID
	t.TenantID = m.TenantID
	t.Version = m.Version
	t.CreatedAt = m.CreatedAt
	t.UpdatedAt = m.UpdatedAt
	t.Lines = make([]finance.LedgerTitleLine, len(m.Lines))
	for i := range m.Lines {
		t.Lines[i] = m.Lines[i].ToDomain()
	}
	return t
}

// FromDomain populates the model, lines included
func (m *LedgerTitleModel) FromDomain(t *finance.LedgerTitle) {
	m.ID = t.ID
	m.TenantID = t.TenantID
	m.Version = t.Version
	m.CreatedAt = t.CreatedAt
	m.UpdatedAt = t.UpdatedAt
	m.Direction = t.Direction
	m.DocumentNumber = t.DocumentNumber
	m.DocumentType = t.DocumentType
	m.SourceOrderID = t.SourceOrderID
	m.CounterpartyID = t.CounterpartyID
	m.CounterpartyName = t.CounterpartyName
	m.Status = t.Status
	m.IssueDate = t.IssueDate
	m.LaunchDate = t.LaunchDate
	m.DueDate = t.DueDate
	m.GrossAmount = t.GrossAmount
	m.DiscountAmount = t.DiscountAmount
	m.TaxAmount = t.TaxAmount
	m.NetAmount = t.NetAmount
	m.PaidAmount = t.PaidAmount
	m.Note = t.Note
	m.CategoryID = t.CategoryID
	m.ProfitCenterID = t.ProfitCenterID
	m.BranchID = t.BranchID
	m.BusinessUnitID = t.BusinessUnitID
	m.AccountingEntryID = t.AccountingEntryID
	m.Lines = make([]LedgerTitleLineModel, len(t.Lines))
	for i, l := range t.Lines {
		m.Lines[i] = LedgerTitleLineModelFromDomain(t.TenantID, i, l)
	}
}

// LedgerTitleModelFromDomain creates a new persistence model from a domain LedgerTitle
func LedgerTitleModelFromDomain(t *finance.LedgerTitle) *LedgerTitleModel {
	m := &LedgerTitleModel{}
	m.FromDomain(t)
	return m
}

// LedgerTitleLineModel maps ledger_title_lines
type LedgerTitleLineModel struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	TitleID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position           int             `gorm:"not null;default:0"`
	LineType           string          `gorm:"type:varchar(20);not null"`
	Description        string          `gorm:"type:varchar(255)"`
	Quantity           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitValue          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	GrossValue         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Discount           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Tax                decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	NetValue           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ProductOrServiceID *uuid.UUID      `gorm:"type:uuid"`
	BusinessUnitID     *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (LedgerTitleLineModel) TableName() string {
	return "ledger_title_lines"
}

// ToDomain converts the model to a finance.LedgerTitleLine
func (m *LedgerTitleLineModel) ToDomain() finance.LedgerTitleLine {
	return finance.LedgerTitleLine{
		ID:                 m.ID,
		TitleID:            m.TitleID,
		LineType:           m.LineType,
		Description:        m.Description,
		Quantity:           m.Quantity,
		UnitValue:          m.UnitValue,
		GrossValue:         m.GrossValue,
		Discount:           m.Discount,
		Tax:                m.Tax,
		NetValue:           m.NetValue,
		ProductOrServiceID: m.ProductOrServiceID,
		BusinessUnitID:     m.BusinessUnitID,
	}
}

// LedgerTitleLineModelFromDomain maps a line, stamping the owning tenant and
// its position within the title
func LedgerTitleLineModelFromDomain(tenantID uuid.UUID, position int, l finance.LedgerTitleLine) LedgerTitleLineModel {
	return LedgerTitleLineModel{
		ID:                 l.ID,
		TenantID:           tenantID,
		Position:           position,
		TitleID:            l.TitleID,
		LineType:           l.LineType,
		Description:        l.Description,
		Quantity:           l.Quantity,
		UnitValue:          l.UnitValue,
		GrossValue:         l.GrossValue,
		Discount:           l.Discount,
		Tax:                l.Tax,
		NetValue:           l.NetValue,
		ProductOrServiceID: l.ProductOrServiceID,
		BusinessUnitID:     l.BusinessUnitID,
	}
}
