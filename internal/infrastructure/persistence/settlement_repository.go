package persistence

import (
	"context"
	"errors"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSettlementRepository implements finance.SettlementRepository using GORM
type GormSettlementRepository struct {
	db   *gorm.DB
	caps *SchemaCapabilities
}

// NewGormSettlementRepository creates a repository writing every column of
// the current schema
func NewGormSettlementRepository(db *gorm.DB) *GormSettlementRepository {
	return &GormSettlementRepository{db: db, caps: FullCapabilities()}
}

// WithCapabilities returns a copy that omits the optional columns caps lacks
func (r *GormSettlementRepository) WithCapabilities(caps *SchemaCapabilities) *GormSettlementRepository {
	return &GormSettlementRepository{db: r.db, caps: caps}
}

// FindByIDForTenant loads a header with its lines
func (r *GormSettlementRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.SettlementHeader, error) {
	var model models.SettlementHeaderModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Preload("Lines").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("settlement", id)
		}
		return nil, translateError("load settlement", err)
	}
	return model.ToDomain(), nil
}

// Create inserts the header and then its lines. A header-only settlement
// writes no line.
func (r *GormSettlementRepository) Create(ctx context.Context, header *finance.SettlementHeader) error {
	model := models.SettlementHeaderModelFromDomain(header)
	omit := append([]string{clause.Associations}, r.caps.Omitted(model.TableName())...)
	if err := r.db.WithContext(ctx).Omit(omit...).Create(model).Error; err != nil {
		return translateError("insert settlement", err)
	}
	if len(model.Lines) == 0 {
		return nil
	}

	lineOmit := r.caps.Omitted(models.SettlementLineModel{}.TableName())
	if err := r.db.WithContext(ctx).Omit(lineOmit...).Create(&model.Lines).Error; err != nil {
		return translateError("insert settlement lines", err)
	}
	return nil
}

// SumPaidForTitle totals paid_value over every settlement line of the title
func (r *GormSettlementRepository) SumPaidForTitle(ctx context.Context, tenantID, titleID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.SettlementLineModel{}).
		Select("COALESCE(SUM(paid_value), 0) as total").
		Scopes(TenantScope(tenantID)).
		Where("title_id = ?", titleID).
		Scan(&result).Error; err != nil {
		return decimal.Zero, translateError("sum settlement lines", err)
	}
	return result.Total, nil
}

// FindLinesByTitle lists the settlement lines of a title, oldest first
func (r *GormSettlementRepository) FindLinesByTitle(ctx context.Context, tenantID, titleID uuid.UUID) ([]finance.SettlementLine, error) {
	var rows []models.SettlementLineModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Where("title_id = ?", titleID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError("list settlement lines", err)
	}
	lines := make([]finance.SettlementLine, len(rows))
	for i := range rows {
		lines[i] = rows[i].ToDomain()
	}
	return lines, nil
}

var _ finance.SettlementRepository = (*GormSettlementRepository)(nil)
