package finance

import (
	"context"
	"errors"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// IdempotencyGuard detects titles already posted under the same document number
type IdempotencyGuard struct{}

// NewIdempotencyGuard creates a new IdempotencyGuard
func NewIdempotencyGuard() *IdempotencyGuard {
	return &IdempotencyGuard{}
}

// EnsureNotDuplicate returns the id of the title already stored for
// (tenant, direction, document number), or nil when there is none. repo must
// be scoped to the caller's transaction. The unique index
// idx_ledger_title_tenant_direction_number backs the check against races.
func (g *IdempotencyGuard) EnsureNotDuplicate(
	ctx context.Context,
	repo finance.LedgerTitleRepository,
	tenantID uuid.UUID,
	direction finance.TitleDirection,
	documentNumber string,
) (*uuid.UUID, error) {
	existing, err := repo.FindByDocumentNumber(ctx, tenantID, direction, documentNumber)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	id := existing.ID
	return &id, nil
}
