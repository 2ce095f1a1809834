package persistence

import (
	"context"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLookupRepository resolves display names for settlement responses
type GormLookupRepository struct {
	db *gorm.DB
}

// NewGormLookupRepository creates a new GormLookupRepository
func NewGormLookupRepository(db *gorm.DB) *GormLookupRepository {
	return &GormLookupRepository{db: db}
}

// FinancialAccountName returns the account name or "" when absent
func (r *GormLookupRepository) FinancialAccountName(ctx context.Context, tenantID, id uuid.UUID) (string, error) {
	return r.name(ctx, &models.FinancialAccountModel{}, tenantID, id)
}

// PaymentMethodName returns the method name or "" when absent
func (r *GormLookupRepository) PaymentMethodName(ctx context.Context, tenantID, id uuid.UUID) (string, error) {
	return r.name(ctx, &models.PaymentMethodModel{}, tenantID, id)
}

func (r *GormLookupRepository) name(ctx context.Context, model any, tenantID, id uuid.UUID) (string, error) {
	var names []string
	if err := r.db.WithContext(ctx).
		Model(model).
		Scopes(TenantScope(tenantID)).
		Where("id = ?", id).
		Limit(1).
		Pluck("name", &names).Error; err != nil {
		return "", translateError("lookup name", err)
	}
	if len(names) == 0 {
		return "", nil
	}
	return names[0], nil
}

var _ finance.LookupRepository = (*GormLookupRepository)(nil)
