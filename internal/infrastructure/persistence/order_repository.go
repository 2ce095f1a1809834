package persistence

import (
	"context"
	"errors"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCommercialOrderRepository reads commercial orders owned by the
// commercial module
type GormCommercialOrderRepository struct {
	db *gorm.DB
}

// NewGormCommercialOrderRepository creates a new GormCommercialOrderRepository
func NewGormCommercialOrderRepository(db *gorm.DB) *GormCommercialOrderRepository {
	return &GormCommercialOrderRepository{db: db}
}

// FindByIDForTenant loads an order of the given direction with its items
func (r *GormCommercialOrderRepository) FindByIDForTenant(ctx context.Context, tenantID uuid.UUID, direction trade.OrderDirection, id uuid.UUID) (*trade.CommercialOrder, error) {
	var model models.CommercialOrderModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Where("id = ? AND direction = ?", id, direction).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("order", id)
		}
		return nil, translateError("load order", err)
	}
	return model.ToDomain(), nil
}

var _ trade.CommercialOrderReader = (*GormCommercialOrderRepository)(nil)
