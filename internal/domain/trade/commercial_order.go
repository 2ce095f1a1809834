package trade

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderDirection tells whether an order sells to a customer or buys from a supplier
type OrderDirection string

const (
	OrderDirectionSales    OrderDirection = "SALES"
	OrderDirectionPurchase OrderDirection = "PURCHASE"
)

// IsValid checks if the direction is known
func (d OrderDirection) IsValid() bool {
	return d == OrderDirectionSales || d == OrderDirectionPurchase
}

// CommercialOrderItem is one itemized line of a commercial order
type CommercialOrderItem struct {
	ID                 uuid.UUID
	ProductOrServiceID *uuid.UUID
	Description        string
	Quantity           decimal.Decimal
	UnitPrice          decimal.Decimal
	Discount           decimal.Decimal
	Tax                decimal.Decimal
	Total              *decimal.Decimal
}

// CommercialOrder is a sales or purchase order as produced by the commercial
// module. The ledger only reads it.
type CommercialOrder struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	Direction        OrderDirection
	CounterpartyID   uuid.UUID
	CounterpartyName string
	OrderNumber      string
	OrderDate        *time.Time
	DocumentDate     *time.Time
	LaunchDate       *time.Time
	DueDate          *time.Time
	TotalAmount      decimal.Decimal
	Description      string
	Notes            string
	CategoryID       *uuid.UUID
	ProfitCenterID   *uuid.UUID
	BranchID         *uuid.UUID
	BusinessUnitID   *uuid.UUID
	Items            []CommercialOrderItem
	CreatedAt        time.Time
}

// HasCounterparty reports whether the order references a customer or supplier
func (o *CommercialOrder) HasCounterparty() bool {
	return o.CounterpartyID != uuid.Nil
}

// Number returns the trimmed order number, empty when the order has none
func (o *CommercialOrder) Number() string {
	return strings.TrimSpace(o.OrderNumber)
}

// CommercialOrderReader loads orders for posting and diagnosis
type CommercialOrderReader interface {
	// FindByIDForTenant returns shared.ErrNotFound when the order is absent
	// for the tenant or has a different direction.
	FindByIDForTenant(ctx context.Context, tenantID uuid.UUID, direction OrderDirection, id uuid.UUID) (*CommercialOrder, error)
}
