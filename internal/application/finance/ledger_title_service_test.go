package finance_test

import (
	"context"
	"sync"
	"testing"
	"time"

	appfinance "github.com/erp/ledger/internal/application/finance"
	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockMetrics struct {
	mock.Mock
}

func (m *mockMetrics) RecordTitlePosted(ctx context.Context, tenantID uuid.UUID, direction string) {
	m.Called(tenantID, direction)
}

func (m *mockMetrics) RecordDuplicatePosting(ctx context.Context, tenantID uuid.UUID, direction string) {
	m.Called(tenantID, direction)
}

func (m *mockMetrics) RecordJournalPosted(ctx context.Context, tenantID uuid.UUID, origin string) {
	m.Called(tenantID, origin)
}

func (m *mockMetrics) RecordSettlement(ctx context.Context, tenantID uuid.UUID, direction string, amount decimal.Decimal) {
	m.Called(tenantID, direction, amount.String())
}

func (m *mockMetrics) RecordFailure(ctx context.Context, tenantID uuid.UUID, operation, code string) {
	m.Called(tenantID, operation, code)
}

func TestPostOrderToLedger_NoItemsCreatesSyntheticLine(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	order := f.seedOrder(t, orderSeed{total: dec("1500.00")})

	res, err := f.titles.PostOrderToLedger(ctx, f.tenantID, finance.TitleDirectionReceivable, order.ID)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "PV-"+order.ID.String(), res.DocumentNumber)

	view, err := f.titles.GetTitle(ctx, f.tenantID, res.TitleID)
	require.NoError(t, err)
	assert.True(t, view.NetAmount.Equal(dec("1500")))
	assert.Equal(t, finance.TitleStatusPending, view.Status)
	assert.Equal(t, appfinance.DocumentTypeSalesOrder, view.DocumentType)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, finance.LineTypeSynthetic, view.Lines[0].LineType)
	assert.True(t, view.PendingAmount.Equal(dec("1500")))

	// the created event is in the outbox of the same transaction
	assert.Equal(t, int64(1), f.count(t, &models.OutboxEntryModel{}, "event_type = ? AND aggregate_id = ?", finance.EventTypeTitleCreated, res.TitleID))
}

func TestPostOrderToLedger_WithItems(t *testing.T) {
	f := newLedgerFixture(t)
	order := f.seedOrder(t, orderSeed{
		direction: trade.OrderDirectionPurchase,
		number:    "OC-2024-77",
		total:     dec("150"),
		items: []trade.CommercialOrderItem{
			{Description: "Cabo", Quantity: dec("2"), UnitPrice: dec("50"), Discount: dec("0"), Tax: dec("12.5")},
			{Description: "Frete", Quantity: dec("1"), UnitPrice: dec("50"), Discount: dec("0"), Tax: dec("0")},
		},
	})

	res, err := f.titles.PostOrderToLedger(context.Background(), f.tenantID, finance.TitleDirectionPayable, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "OC-2024-77", res.DocumentNumber)

	view, err := f.titles.GetTitle(context.Background(), f.tenantID, res.TitleID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)
	assert.Equal(t, "Cabo", view.Lines[0].Description)
	assert.Equal(t, "Frete", view.Lines[1].Description)
	assert.True(t, view.GrossAmount.Equal(dec("150")))
	assert.True(t, view.TaxAmount.Equal(dec("12.5")))
	assert.True(t, view.NetAmount.Equal(dec("150")))
	assert.Equal(t, finance.TitleDirectionPayable, view.Direction)
}

func TestPostOrderToLedger_TimeoutRollsBack(t *testing.T) {
	tests := []struct {
		name    string
		service func(f *ledgerFixture) *appfinance.LedgerTitleService
		ctx     func(t *testing.T) context.Context
	}{
		{
			name:    "deadline expired before the transaction",
			service: func(f *ledgerFixture) *appfinance.LedgerTitleService { return f.titles },
			ctx:     expiredContext,
		},
		{
			name: "deadline expires before commit",
			service: func(f *ledgerFixture) *appfinance.LedgerTitleService {
				cfg := appfinance.DefaultPostingConfig()
				cfg.OperationTimeout = 50 * time.Millisecond
				return appfinance.NewLedgerTitleService(stallingScope{inner: f.scope}, cfg, zaptest.NewLogger(t))
			},
			ctx: func(*testing.T) context.Context { return context.Background() },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture(t)
			order := f.seedOrder(t, orderSeed{number: "PV-T2", total: dec("80")})

			_, err := tt.service(f).PostOrderToLedger(tt.ctx(t), f.tenantID, finance.TitleDirectionReceivable, order.ID)
			requireTimeout(t, err)

			assert.Equal(t, int64(0), f.count(t, &models.LedgerTitleModel{}, ""))
			assert.Equal(t, int64(0), f.count(t, &models.LedgerTitleLineModel{}, ""))
			assert.Equal(t, int64(0), f.count(t, &models.OutboxEntryModel{}, ""))

			// the order posts normally once the deadline is not in the way
			res, err := f.titles.PostOrderToLedger(context.Background(), f.tenantID, finance.TitleDirectionReceivable, order.ID)
			require.NoError(t, err)
			assert.True(t, res.Created)
		})
	}
}

func TestPostOrderToLedger_IsIdempotent(t *testing.T) {
	f := newLedgerFixture(t)
	metrics := new(mockMetrics)
	metrics.On("RecordTitlePosted", f.tenantID, "RECEIVABLE").Once()
	metrics.On("RecordDuplicatePosting", f.tenantID, "RECEIVABLE").Once()
	f.titles.SetMetrics(metrics)

	order := f.seedOrder(t, orderSeed{number: "PV-100", total: dec("100")})
	first, err := f.titles.PostOrderToLedger(context.Background(), f.tenantID, finance.TitleDirectionReceivable, order.ID)
	require.NoError(t, err)
	second, err := f.titles.PostOrderToLedger(context.Background(), f.tenantID, finance.TitleDirectionReceivable, order.ID)
	require.NoError(t, err)

	assert.True(t, first.Created)
	assert.False(t, second.Created)
	assert.Equal(t, first.TitleID, second.TitleID)
	assert.Equal(t, int64(1), f.count(t, &models.LedgerTitleModel{}, ""))
	assert.Equal(t, int64(1), f.count(t, &models.OutboxEntryModel{}, ""))
	metrics.AssertExpectations(t)
}

func TestPostOrderToLedger_SameDocumentNumberAcrossOrders(t *testing.T) {
	f := newLedgerFixture(t)
	first := f.postOrder(t, "NF-42", dec("100"))

	other := f.seedOrder(t, orderSeed{number: "NF-42", total: dec("999")})
	res, err := f.titles.PostOrderToLedger(context.Background(), f.tenantID, finance.TitleDirectionReceivable, other.ID)
	require.NoError(t, err)

	assert.False(t, res.Created)
	assert.Equal(t, first.TitleID, res.TitleID)
	assert.Equal(t, int64(1), f.count(t, &models.LedgerTitleModel{}, "document_number = ?", "NF-42"))
}

func TestPostOrderToLedger_DocumentNumberIsPerDirectionAndTenant(t *testing.T) {
	f := newLedgerFixture(t)
	receivable := f.postOrder(t, "DOC-1", dec("100"))

	purchase := f.seedOrder(t, orderSeed{direction: trade.OrderDirectionPurchase, number: "DOC-1", total: dec("100")})
	payable, err := f.titles.PostOrderToLedger(context.Background(), f.tenantID, finance.TitleDirectionPayable, purchase.ID)
	require.NoError(t, err)
	assert.True(t, payable.Created)
	assert.NotEqual(t, receivable.TitleID, payable.TitleID)

	// another tenant cannot see the order
	_, err = f.titles.PostOrderToLedger(context.Background(), uuid.New(), finance.TitleDirectionPayable, purchase.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPostOrderToLedger_ConcurrentPostingsCreateOneTitle(t *testing.T) {
	f := newLedgerFixture(t)
	order := f.seedOrder(t, orderSeed{number: "PV-RACE", total: dec("50")})

	const workers = 4
	results := make([]*appfinance.PostOrderResult, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.titles.PostOrderToLedger(context.Background(), f.tenantID, finance.TitleDirectionReceivable, order.ID)
		}(i)
	}
	wg.Wait()

	created := 0
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].TitleID, results[i].TitleID)
		if results[i].Created {
			created++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, int64(1), f.count(t, &models.LedgerTitleModel{}, ""))
}

func TestPostOrderToLedger_Validation(t *testing.T) {
	f := newLedgerFixture(t)
	metrics := new(mockMetrics)
	f.titles.SetMetrics(metrics)
	ctx := context.Background()

	tests := []struct {
		name      string
		tenantID  uuid.UUID
		direction finance.TitleDirection
		orderID   func() uuid.UUID
		wantErr   error
	}{
		{"missing tenant", uuid.Nil, finance.TitleDirectionReceivable, uuid.New, shared.ErrInvalidInput},
		{"bad direction", f.tenantID, finance.TitleDirection("BOTH"), uuid.New, shared.ErrInvalidInput},
		{"missing order id", f.tenantID, finance.TitleDirectionReceivable, func() uuid.UUID { return uuid.Nil }, shared.ErrInvalidInput},
		{"unknown order", f.tenantID, finance.TitleDirectionReceivable, uuid.New, shared.ErrNotFound},
		{"order without customer", f.tenantID, finance.TitleDirectionReceivable, func() uuid.UUID {
			return f.seedOrder(t, orderSeed{total: dec("10"), noCustomer: true}).ID
		}, shared.ErrInvalidInput},
		{"zero total", f.tenantID, finance.TitleDirectionReceivable, func() uuid.UUID {
			return f.seedOrder(t, orderSeed{total: dec("0")}).ID
		}, shared.ErrInvalidInput},
		{"wrong direction for order", f.tenantID, finance.TitleDirectionPayable, func() uuid.UUID {
			return f.seedOrder(t, orderSeed{total: dec("10")}).ID
		}, shared.ErrNotFound},
	}

	metrics.On("RecordFailure", mock.Anything, telemetry.OperationPostOrder, mock.Anything).Maybe()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.titles.PostOrderToLedger(ctx, tt.tenantID, tt.direction, tt.orderID())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, int64(0), f.count(t, &models.LedgerTitleModel{}, ""))
}

func TestGetTitle_NotFoundForOtherTenant(t *testing.T) {
	f := newLedgerFixture(t)
	res := f.postOrder(t, "PV-7", dec("25"))

	_, err := f.titles.GetTitle(context.Background(), uuid.New(), res.TitleID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = f.titles.GetTitle(context.Background(), uuid.Nil, res.TitleID)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
