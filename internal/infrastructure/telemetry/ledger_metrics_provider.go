package telemetry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLedgerMetricsProvider implements LedgerMetricsProvider using GORM.
// It queries the ledger tables directly for aggregated gauges.
type GormLedgerMetricsProvider struct {
	db *gorm.DB
}

// NewGormLedgerMetricsProvider creates a new GormLedgerMetricsProvider.
func NewGormLedgerMetricsProvider(db *gorm.DB) *GormLedgerMetricsProvider {
	return &GormLedgerMetricsProvider{db: db}
}

// OpenTitleCount returns titles of a tenant that are pending or partially settled.
func (p *GormLedgerMetricsProvider) OpenTitleCount(ctx context.Context, tenantID uuid.UUID, direction string) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("ledger_titles").
		Where("tenant_id = ? AND direction = ?", tenantID, direction).
		Where("status IN ?", []string{"pendente", "parcial"}).
		Count(&count).Error

	return count, err
}

// DeadOutboxCount returns outbox entries that exhausted their retries.
func (p *GormLedgerMetricsProvider) DeadOutboxCount(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("outbox_events").
		Where("status = ?", "DEAD").
		Count(&count).Error

	return count, err
}

// ActiveTenantIDs returns the tenants that own at least one title.
func (p *GormLedgerMetricsProvider) ActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("ledger_titles").
		Distinct("tenant_id").
		Pluck("tenant_id", &ids).Error

	return ids, err
}

var _ LedgerMetricsProvider = (*GormLedgerMetricsProvider)(nil)
