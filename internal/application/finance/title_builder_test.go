package finance

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostingConfig_DocumentNumberFor(t *testing.T) {
	cfg := DefaultPostingConfig()
	order := &trade.CommercialOrder{ID: uuid.MustParse("0b6f0c86-3bb4-4d43-9d0f-5a4a1e0d9c11")}

	assert.Equal(t, "PV-0b6f0c86-3bb4-4d43-9d0f-5a4a1e0d9c11", cfg.DocumentNumberFor(order, finance.TitleDirectionReceivable))
	assert.Equal(t, "OC-0b6f0c86-3bb4-4d43-9d0f-5a4a1e0d9c11", cfg.DocumentNumberFor(order, finance.TitleDirectionPayable))

	order.OrderNumber = "  NF-778  "
	assert.Equal(t, "NF-778", cfg.DocumentNumberFor(order, finance.TitleDirectionReceivable))
}

func TestOrderDirectionFor(t *testing.T) {
	assert.Equal(t, trade.OrderDirectionSales, OrderDirectionFor(finance.TitleDirectionReceivable))
	assert.Equal(t, trade.OrderDirectionPurchase, OrderDirectionFor(finance.TitleDirectionPayable))
}

func TestBuildTitle_NoItemsSynthesizesOneLine(t *testing.T) {
	today := time.Date(2026, 3, 14, 16, 30, 0, 0, time.UTC)
	order := &trade.CommercialOrder{
		ID:             uuid.New(),
		TenantID:       uuid.New(),
		CounterpartyID: uuid.New(),
		TotalAmount:    decimal.RequireFromString("1500.00"),
	}

	params, lines := buildTitle(order, finance.TitleDirectionReceivable, "PV-1", today)

	require.Len(t, lines, 1)
	assert.Equal(t, finance.LineTypeSynthetic, lines[0].LineType)
	assert.Equal(t, "Total PV-1", lines[0].Description)
	assert.True(t, lines[0].Quantity.Equal(decimal.NewFromInt(1)))
	assert.True(t, lines[0].NetValue.Equal(decimal.RequireFromString("1500")))

	assert.True(t, params.NetAmount.Equal(decimal.RequireFromString("1500")))
	assert.True(t, params.GrossAmount.Equal(params.NetAmount))
	assert.True(t, params.DiscountAmount.IsZero())
	assert.Equal(t, DocumentTypeSalesOrder, params.DocumentType)
	assert.Equal(t, "Pedido PV-1 (ID "+order.ID.String()+")", params.Note)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), params.IssueDate)
	assert.Equal(t, params.IssueDate, params.LaunchDate)
	assert.Equal(t, params.IssueDate, params.DueDate)
}

func TestBuildTitle_ItemsAndDates(t *testing.T) {
	today := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	orderDate := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	due := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	total := decimal.RequireFromString("40")
	order := &trade.CommercialOrder{
		ID:             uuid.New(),
		TenantID:       uuid.New(),
		CounterpartyID: uuid.New(),
		OrderDate:      &orderDate,
		DueDate:        &due,
		TotalAmount:    decimal.RequireFromString("-130"),
		Notes:          "  entrega parcial ",
		Items: []trade.CommercialOrderItem{
			{Description: "Parafuso", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(10), Discount: decimal.NewFromInt(-10), Tax: decimal.NewFromInt(5)},
			{Quantity: decimal.Zero, UnitPrice: decimal.Zero, Total: &total},
		},
	}

	params, lines := buildTitle(order, finance.TitleDirectionPayable, "OC-9", today)

	require.Len(t, lines, 2)
	assert.Equal(t, finance.LineTypeItem, lines[0].LineType)
	assert.True(t, lines[0].GrossValue.Equal(decimal.NewFromInt(100)))
	assert.True(t, lines[0].Discount.Equal(decimal.NewFromInt(10)))
	assert.True(t, lines[0].NetValue.Equal(decimal.NewFromInt(90)))

	assert.Equal(t, "Item 2", lines[1].Description)
	assert.True(t, lines[1].Quantity.Equal(decimal.NewFromInt(1)), "quantity is at least one")
	assert.True(t, lines[1].GrossValue.Equal(total))
	assert.True(t, lines[1].NetValue.Equal(total))

	// net is the order total, tax is tracked and not subtracted
	assert.True(t, params.NetAmount.Equal(decimal.NewFromInt(130)))
	assert.True(t, params.GrossAmount.Equal(decimal.NewFromInt(140)))
	assert.True(t, params.DiscountAmount.Equal(decimal.NewFromInt(10)))
	assert.True(t, params.TaxAmount.Equal(decimal.NewFromInt(5)))

	assert.Equal(t, DocumentTypePurchaseOrder, params.DocumentType)
	assert.Equal(t, "entrega parcial", params.Note)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), params.IssueDate)
	assert.Equal(t, params.IssueDate, params.LaunchDate)
	assert.Equal(t, due, params.DueDate)
}

func TestBuildTitle_HeaderAmountsFollowOrderTotal(t *testing.T) {
	today := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		total        string
		items        []trade.CommercialOrderItem
		wantGross    string
		wantDiscount string
	}{
		{
			name:  "freight in the total",
			total: "1000",
			items: []trade.CommercialOrderItem{
				{Description: "Geladeira", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(900)},
			},
			wantGross:    "1000",
			wantDiscount: "0",
		},
		{
			name:  "total already net of item discount",
			total: "100",
			items: []trade.CommercialOrderItem{
				{Description: "Cadeira", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100), Discount: decimal.NewFromInt(10)},
			},
			wantGross:    "110",
			wantDiscount: "10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &trade.CommercialOrder{
				ID:             uuid.New(),
				TenantID:       uuid.New(),
				CounterpartyID: uuid.New(),
				TotalAmount:    decimal.RequireFromString(tt.total),
				Items:          tt.items,
			}

			params, _ := buildTitle(order, finance.TitleDirectionReceivable, "PV-7", today)

			assert.True(t, params.NetAmount.Equal(decimal.RequireFromString(tt.total)))
			assert.True(t, params.GrossAmount.Equal(decimal.RequireFromString(tt.wantGross)), "gross %s", params.GrossAmount)
			assert.True(t, params.DiscountAmount.Equal(decimal.RequireFromString(tt.wantDiscount)), "discount %s", params.DiscountAmount)
			assert.True(t, params.NetAmount.Equal(params.GrossAmount.Sub(params.DiscountAmount)))
		})
	}
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, shared.CodeValidation, errorCode(shared.NewValidationError("bad")))
	assert.Equal(t, shared.CodeAlreadySettled, errorCode(fmt.Errorf("wrapped: %w", shared.ErrAlreadySettled)))
	assert.Equal(t, shared.CodeInfrastructure, errorCode(errors.New("boom")))
	assert.Equal(t, "TIMEOUT", errorCode(shared.NewInfrastructureError("query", context.DeadlineExceeded)))
}
