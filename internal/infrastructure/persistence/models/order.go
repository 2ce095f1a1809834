package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommercialOrderModel maps commercial_orders. The ledger never writes it
// outside of tests and fixtures.
type CommercialOrderModel struct {
	ID               uuid.UUID            `gorm:"type:uuid;primaryKey"`
	TenantID         uuid.UUID            `gorm:"type:uuid;not null;index:idx_commercial_order_tenant_direction,priority:1"`
	Direction        trade.OrderDirection `gorm:"type:varchar(20);not null;index:idx_commercial_order_tenant_direction,priority:2"`
	CounterpartyID   *uuid.UUID           `gorm:"type:uuid;index"`
	CounterpartyName string               `gorm:"type:varchar(200)"`
	OrderNumber      string               `gorm:"type:varchar(60)"`
	OrderDate        *time.Time
	DocumentDate     *time.Time
	LaunchDate       *time.Time
	DueDate          *time.Time
	TotalAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Description      string          `gorm:"type:text"`
	Notes            string          `gorm:"type:text"`
	CategoryID       *uuid.UUID      `gorm:"type:uuid"`
	ProfitCenterID   *uuid.UUID      `gorm:"type:uuid"`
	BranchID         *uuid.UUID      `gorm:"type:uuid"`
	BusinessUnitID   *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt        time.Time       `gorm:"not null"`
	UpdatedAt        time.Time       `gorm:"not null"`

	Items []CommercialOrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (CommercialOrderModel) TableName() string {
	return "commercial_orders"
}

// ToDomain converts the model to a trade.CommercialOrder
func (m *CommercialOrderModel) ToDomain() *trade.CommercialOrder {
	o := &trade.CommercialOrder{
		ID:               m.ID,
		TenantID:         m.TenantID,
		Direction:        m.Direction,
		CounterpartyName: m.CounterpartyName,
		OrderNumber:      m.OrderNumber,
		OrderDate:        m.OrderDate,
		DocumentDate:     m.DocumentDate,
		LaunchDate:       m.LaunchDate,
		DueDate:          m.DueDate,
		TotalAmount:      m.TotalAmount,
		Description:      m.Description,
		Notes:            m.Notes,
		CategoryID:       m.CategoryID,
		ProfitCenterID:   m.ProfitCenterID,
		BranchID:         m.BranchID,
		BusinessUnitID:   m.BusinessUnitID,
		CreatedAt:        m.CreatedAt,
	}
	if m.CounterpartyID != nil {
		o.CounterpartyID = *m.CounterpartyID
	}
	o.Items = make([]trade.CommercialOrderItem, len(m.Items))
	for i := range m.Items {
		o.Items[i] = m.Items[i].ToDomain()
	}
	return o
}

// CommercialOrderModelFromDomain is used by fixtures and tests
func CommercialOrderModelFromDomain(o *trade.CommercialOrder) *CommercialOrderModel {
	m := &CommercialOrderModel{
		ID:               o.ID,
		TenantID:         o.TenantID,
		Direction:        o.Direction,
		CounterpartyName: o.CounterpartyName,
		OrderNumber:      o.OrderNumber,
		OrderDate:        o.OrderDate,
		DocumentDate:     o.DocumentDate,
		LaunchDate:       o.LaunchDate,
		DueDate:          o.DueDate,
		TotalAmount:      o.TotalAmount,
		Description:      o.Description,
		Notes:            o.Notes,
		CategoryID:       o.CategoryID,
		ProfitCenterID:   o.ProfitCenterID,
		BranchID:         o.BranchID,
		BusinessUnitID:   o.BusinessUnitID,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.CreatedAt,
	}
	if o.CounterpartyID != uuid.Nil {
		id := o.CounterpartyID
		m.CounterpartyID = &id
	}
	for i, it := range o.Items {
		m.Items = append(m.Items, CommercialOrderItemModel{
			ID:                 it.ID,
			TenantID:           o.TenantID,
			OrderID:            o.ID,
			Position:           i,
			ProductOrServiceID: it.ProductOrServiceID,
			Description:        it.Description,
			Quantity:           it.Quantity,
			UnitPrice:          it.UnitPrice,
			Discount:           it.Discount,
			Tax:                it.Tax,
			Total:              it.Total,
		})
	}
	return m
}

// CommercialOrderItemModel maps commercial_order_items
type CommercialOrderItemModel struct {
	ID                 uuid.UUID        `gorm:"type:uuid;primaryKey"`
	TenantID           uuid.UUID        `gorm:"type:uuid;not null;index"`
	OrderID            uuid.UUID        `gorm:"type:uuid;not null;index"`
	Position           int              `gorm:"not null;default:0"`
	ProductOrServiceID *uuid.UUID       `gorm:"type:uuid"`
	Description        string           `gorm:"type:varchar(255)"`
	Quantity           decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	UnitPrice          decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	Discount           decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	Tax                decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	Total              *decimal.Decimal `gorm:"type:decimal(18,4)"`
}

// TableName returns the table name for GORM
func (CommercialOrderItemModel) TableName() string {
	return "commercial_order_items"
}

// ToDomain converts the model to a trade.CommercialOrderItem
func (m *CommercialOrderItemModel) ToDomain() trade.CommercialOrderItem {
	return trade.CommercialOrderItem{
		ID:                 m.ID,
		ProductOrServiceID: m.ProductOrServiceID,
		Description:        m.Description,
		Quantity:           m.Quantity,
		UnitPrice:          m.UnitPrice,
		Discount:           m.Discount,
		Tax:                m.Tax,
		Total:              m.Total,
	}
}
