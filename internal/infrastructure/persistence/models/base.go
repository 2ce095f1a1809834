package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// TenantAggregateModel holds the columns every tenant-owned aggregate table carries
type TenantAggregateModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Version   int       `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// FromDomainTenantAggregateRoot populates the common columns
func (m *TenantAggregateModel) FromDomainTenantAggregateRoot(a shared.TenantAggregateRoot) {
	m.ID = a.ID
	m.TenantID = a.TenantID
	m.Version = a.Version
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
}

// PopulateTenantAggregateRoot copies the common columns into an aggregate
func (m *TenantAggregateModel) PopulateTenantAggregateRoot(a *shared.TenantAggregateRoot) {
	a.ID = m.ID
	a.TenantID = m.TenantID
	a.Version = m.Version
	a.CreatedAt = m.CreatedAt
	a.UpdatedAt = m.UpdatedAt
}
