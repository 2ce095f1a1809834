package persistence

import (
	"context"
	"errors"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAccountingEntryRepository implements finance.AccountingEntryRepository using GORM
type GormAccountingEntryRepository struct {
	db *gorm.DB
}

// NewGormAccountingEntryRepository creates a new GormAccountingEntryRepository
func NewGormAccountingEntryRepository(db *gorm.DB) *GormAccountingEntryRepository {
	return &GormAccountingEntryRepository{db: db}
}

// FindByIDForTenant loads an entry with its lines, debit lines first
func (r *GormAccountingEntryRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.AccountingEntry, error) {
	var model models.AccountingEntryModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Preload("Lines", orderEntryLines).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("accounting entry", id)
		}
		return nil, translateError("load accounting entry", err)
	}
	return model.ToDomain(), nil
}

// FindBySource returns shared.ErrNotFound when nothing was posted for the source
func (r *GormAccountingEntryRepository) FindBySource(ctx context.Context, tenantID uuid.UUID, origin finance.AccountingOrigin, sourceID uuid.UUID) (*finance.AccountingEntry, error) {
	var model models.AccountingEntryModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Where("origin_table = ? AND source_id = ?", origin, sourceID).
		Preload("Lines", orderEntryLines).
		Take(&model).Error; err != nil {
		return nil, translateError("find accounting entry by source", err)
	}
	return model.ToDomain(), nil
}

// Create inserts the entry and its lines
func (r *GormAccountingEntryRepository) Create(ctx context.Context, entry *finance.AccountingEntry) error {
	if err := r.db.WithContext(ctx).Create(models.AccountingEntryModelFromDomain(entry)).Error; err != nil {
		return translateError("insert accounting entry", err)
	}
	return nil
}

func orderEntryLines(db *gorm.DB) *gorm.DB {
	return db.Order("debit DESC, credit ASC")
}

// GormAccountingRuleRepository implements finance.AccountingRuleRepository using GORM
type GormAccountingRuleRepository struct {
	db *gorm.DB
}

// NewGormAccountingRuleRepository creates a new GormAccountingRuleRepository
func NewGormAccountingRuleRepository(db *gorm.DB) *GormAccountingRuleRepository {
	return &GormAccountingRuleRepository{db: db}
}

// FindAutomatic prefers a rule bound to the category and falls back to a
// rule without category. Inactive and manual rules are never returned.
func (r *GormAccountingRuleRepository) FindAutomatic(ctx context.Context, tenantID uuid.UUID, origin finance.AccountingOrigin, categoryID *uuid.UUID) (*finance.AccountingRule, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Scopes(TenantScope(tenantID)).
			Where("origin = ? AND automatic = ? AND active = ?", origin, true, true).
			Preload("DebitAccount").
			Preload("CreditAccount").
			Order("created_at ASC")
	}

	var model models.AccountingRuleModel
	if categoryID != nil {
		err := base().Where("category_id = ?", *categoryID).First(&model).Error
		if err == nil {
			return model.ToDomain(), nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, translateError("find accounting rule", err)
		}
	}

	if err := base().Where("category_id IS NULL").First(&model).Error; err != nil {
		return nil, translateError("find accounting rule", err)
	}
	return model.ToDomain(), nil
}

var (
	_ finance.AccountingEntryRepository = (*GormAccountingEntryRepository)(nil)
	_ finance.AccountingRuleRepository  = (*GormAccountingRuleRepository)(nil)
)
