package persistence

import (
	"errors"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TenantScope restricts a query to one tenant. Every ledger query goes
// through it; a nil tenant matches nothing.
func TenantScope(tenantID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tenantID == uuid.Nil {
			return db.Where("1 = 0")
		}
		return db.Where("tenant_id = ?", tenantID)
	}
}

// translateError maps driver errors onto the shared error taxonomy
func translateError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &shared.DomainError{Code: shared.CodeAlreadyExists, Message: op + ": duplicate key", Err: err}
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	return shared.NewInfrastructureError(op, err)
}
