package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLedgerTitleRepository implements finance.LedgerTitleRepository using GORM
type GormLedgerTitleRepository struct {
	db   *gorm.DB
	caps *SchemaCapabilities
}

// NewGormLedgerTitleRepository creates a repository writing every column of
// the current schema
func NewGormLedgerTitleRepository(db *gorm.DB) *GormLedgerTitleRepository {
	return &GormLedgerTitleRepository{db: db, caps: FullCapabilities()}
}

// WithCapabilities returns a copy that omits the optional columns caps lacks
func (r *GormLedgerTitleRepository) WithCapabilities(caps *SchemaCapabilities) *GormLedgerTitleRepository {
	return &GormLedgerTitleRepository{db: r.db, caps: caps}
}

// FindByIDForTenant loads a title with its lines
func (r *GormLedgerTitleRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.LedgerTitle, error) {
	var model models.LedgerTitleModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Preload("Lines", orderLines).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("ledger title", id)
		}
		return nil, translateError("load ledger title", err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate locks the title row with SELECT ... FOR UPDATE. The lock
// is held until the caller's transaction commits or rolls back, so two
// settlements of the same title serialize on it.
func (r *GormLedgerTitleRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*finance.LedgerTitle, error) {
	var model models.LedgerTitleModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(TenantScope(tenantID)).
		Where("id = ?", id).
		Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("ledger title", id)
		}
		return nil, translateError("lock ledger title", err)
	}

	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND title_id = ?", tenantID, id).
		Scopes(orderLines).
		Find(&model.Lines).Error; err != nil {
		return nil, translateError("load ledger title lines", err)
	}
	return model.ToDomain(), nil
}

// FindByDocumentNumber returns shared.ErrNotFound when no title carries the number
func (r *GormLedgerTitleRepository) FindByDocumentNumber(ctx context.Context, tenantID uuid.UUID, direction finance.TitleDirection, documentNumber string) (*finance.LedgerTitle, error) {
	var model models.LedgerTitleModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Where("direction = ? AND document_number = ?", direction, documentNumber).
		Take(&model).Error; err != nil {
		return nil, translateError("find ledger title by document number", err)
	}
	return model.ToDomain(), nil
}

// FindBySourceOrder returns the most recent title posted for an order
func (r *GormLedgerTitleRepository) FindBySourceOrder(ctx context.Context, tenantID uuid.UUID, direction finance.TitleDirection, orderID uuid.UUID) (*finance.LedgerTitle, error) {
	var model models.LedgerTitleModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Where("direction = ? AND source_order_id = ?", direction, orderID).
		Order("created_at DESC").
		Preload("Lines", orderLines).
		First(&model).Error; err != nil {
		return nil, translateError("find ledger title by order", err)
	}
	return model.ToDomain(), nil
}

// Create inserts the header and then its lines. A unique violation on the
// document number surfaces as ALREADY_EXISTS.
func (r *GormLedgerTitleRepository) Create(ctx context.Context, title *finance.LedgerTitle) error {
	model := models.LedgerTitleModelFromDomain(title)
	omit := append([]string{clause.Associations}, r.caps.Omitted(model.TableName())...)
	if err := r.db.WithContext(ctx).Omit(omit...).Create(model).Error; err != nil {
		return translateError("insert ledger title", err)
	}
	if len(model.Lines) == 0 {
		return nil
	}

	lineOmit := r.caps.Omitted(models.LedgerTitleLineModel{}.TableName())
	if err := r.db.WithContext(ctx).Omit(lineOmit...).Create(&model.Lines).Error; err != nil {
		return translateError("insert ledger title lines", err)
	}
	return nil
}

// SaveWithLock updates the mutable header columns when the stored version
// is the one the aggregate was loaded with.
func (r *GormLedgerTitleRepository) SaveWithLock(ctx context.Context, title *finance.LedgerTitle) error {
	result := r.db.WithContext(ctx).
		Model(&models.LedgerTitleModel{}).
		Scopes(TenantScope(title.TenantID)).
		Where("id = ? AND version = ?", title.ID, title.Version-1).
		Updates(map[string]any{
			"status":              title.Status,
			"paid_amount":         title.PaidAmount,
			"accounting_entry_id": title.AccountingEntryID,
			"version":             title.Version,
			"updated_at":          title.UpdatedAt,
		})
	if result.Error != nil {
		return translateError("update ledger title", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// LinkAccountingEntry sets accounting_entry_id unless another entry is already linked
func (r *GormLedgerTitleRepository) LinkAccountingEntry(ctx context.Context, tenantID, titleID, entryID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.LedgerTitleModel{}).
		Scopes(TenantScope(tenantID)).
		Where("id = ? AND (accounting_entry_id IS NULL OR accounting_entry_id = ?)", titleID, entryID).
		Updates(map[string]any{
			"accounting_entry_id": entryID,
			"updated_at":          time.Now(),
		})
	if result.Error != nil {
		return translateError("link accounting entry", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConflict, "title is missing or linked to another entry")
	}
	return nil
}

func orderLines(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

var _ finance.LedgerTitleRepository = (*GormLedgerTitleRepository)(nil)
