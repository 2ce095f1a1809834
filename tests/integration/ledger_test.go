package integration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	appfinance "github.com/erp/ledger/internal/application/finance"
	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/erp/ledger/internal/infrastructure/event"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type ledgerEnv struct {
	tdb         *TestDB
	tenantID    uuid.UUID
	titles      *appfinance.LedgerTitleService
	poster      *appfinance.AccountingPoster
	settlements *appfinance.SettlementService
	diagnostics *appfinance.DiagnosticService
	processor   *event.OutboxProcessor
}

func newLedgerEnv(t *testing.T) *ledgerEnv {
	t.Helper()
	tdb := NewTestDB(t)
	log := zaptest.NewLogger(t)

	caps, err := persistence.ResolveCapabilities(context.Background(), tdb.DB, 2, true, log)
	require.NoError(t, err)

	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	scope := persistence.NewGormTransactionScope(tdb.DB, caps, event.NewOutboxPublisher(serializer))

	poster := appfinance.NewAccountingPoster(scope, 10*time.Second, log)
	bus := event.NewInMemoryEventBus(log)
	for _, h := range []shared.EventHandler{
		appfinance.NewTitleCreatedHandler(poster, log),
		appfinance.NewSettlementRecordedHandler(poster, log),
	} {
		bus.Subscribe(h, h.EventTypes()...)
	}

	return &ledgerEnv{
		tdb:         tdb,
		tenantID:    uuid.New(),
		titles:      appfinance.NewLedgerTitleService(scope, appfinance.DefaultPostingConfig(), log),
		poster:      poster,
		settlements: appfinance.NewSettlementService(scope, nil, nil, appfinance.SettlementConfig{OperationTimeout: 10 * time.Second}, log),
		diagnostics: appfinance.NewDiagnosticService(scope, appfinance.DefaultPostingConfig(), log),
		processor: event.NewOutboxProcessor(event.NewGormOutboxRepository(tdb.DB), bus, serializer,
			event.DefaultOutboxProcessorConfig(), log),
	}
}

func (e *ledgerEnv) seedOrder(t *testing.T, number string, total string) uuid.UUID {
	t.Helper()
	qty := decimal.NewFromInt(1)
	price := decimal.RequireFromString(total)
	order := &trade.CommercialOrder{
		ID:               uuid.New(),
		TenantID:         e.tenantID,
		Direction:        trade.OrderDirectionSales,
		CounterpartyID:   uuid.New(),
		CounterpartyName: "Mercado Central",
		OrderNumber:      number,
		TotalAmount:      price,
		Items: []trade.CommercialOrderItem{
			{ID: uuid.New(), Description: "Cesta basica", Quantity: qty, UnitPrice: price},
		},
		CreatedAt: time.Now(),
	}
	require.NoError(t, e.tdb.DB.Create(models.CommercialOrderModelFromDomain(order)).Error)
	return order.ID
}

func (e *ledgerEnv) seedRule(t *testing.T, origin finance.AccountingOrigin) {
	t.Helper()
	debit := models.LedgerAccountModel{ID: uuid.New(), TenantID: e.tenantID, Code: "1.1.2", Name: "Clientes"}
	credit := models.LedgerAccountModel{ID: uuid.New(), TenantID: e.tenantID, Code: "3.1.1", Name: "Receita de vendas"}
	require.NoError(t, e.tdb.DB.Create(&debit).Error)
	require.NoError(t, e.tdb.DB.Create(&credit).Error)
	require.NoError(t, e.tdb.DB.Create(&models.AccountingRuleModel{
		ID:              uuid.New(),
		TenantID:        e.tenantID,
		Origin:          origin,
		DebitAccountID:  debit.ID,
		CreditAccountID: credit.ID,
		Automatic:       true,
		Active:          true,
		CreatedAt:       time.Now(),
	}).Error)
}

func TestLedger_PostOrderJournalAndSettle(t *testing.T) {
	e := newLedgerEnv(t)
	ctx := context.Background()
	e.seedRule(t, finance.OriginReceivable)
	e.seedRule(t, finance.OriginPaymentReceived)
	orderID := e.seedOrder(t, "1042", "400.00")

	posted, err := e.titles.PostOrderToLedger(ctx, e.tenantID, finance.TitleDirectionReceivable, orderID)
	require.NoError(t, err)
	require.True(t, posted.Created)

	again, err := e.titles.PostOrderToLedger(ctx, e.tenantID, finance.TitleDirectionReceivable, orderID)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, posted.TitleID, again.TitleID)

	// title journal is posted by the outbox delivery of TitleCreated
	assert.Positive(t, e.processor.ProcessPending(ctx))

	diag, err := e.diagnostics.Diagnose(ctx, e.tenantID, finance.TitleDirectionReceivable, orderID)
	require.NoError(t, err)
	assert.True(t, diag.Stages.Order)
	assert.True(t, diag.Stages.Title)
	assert.True(t, diag.Stages.JournalEntry)
	assert.True(t, diag.Stages.JournalLines)
	assert.True(t, diag.Stages.Balanced)
	require.NotNil(t, diag.Stages.TitleLinkedBack)
	assert.True(t, *diag.Stages.TitleLinkedBack)
	assert.True(t, diag.SumDebit.Equal(decimal.RequireFromString("400")))

	journal, err := e.poster.PostJournalForTitle(ctx, e.tenantID, posted.TitleID)
	require.NoError(t, err)
	assert.False(t, journal.Created)

	partial := decimal.RequireFromString("150")
	first, err := e.settlements.SettleTitle(ctx, appfinance.SettleTitleInput{
		TenantID: e.tenantID,
		TitleID:  posted.TitleID,
		Amount:   &partial,
	})
	require.NoError(t, err)
	assert.Equal(t, finance.TitleStatusPartial, first.StatusAfter)
	assert.True(t, first.BalanceAfter.Equal(decimal.RequireFromString("250")))

	rest, err := e.settlements.SettleTitle(ctx, appfinance.SettleTitleInput{TenantID: e.tenantID, TitleID: posted.TitleID})
	require.NoError(t, err)
	assert.Equal(t, finance.TitleStatusReceived, rest.StatusAfter)
	assert.True(t, rest.PaidValue.Equal(decimal.RequireFromString("250")))

	_, err = e.settlements.SettleTitle(ctx, appfinance.SettleTitleInput{TenantID: e.tenantID, TitleID: posted.TitleID})
	assert.ErrorIs(t, err, shared.ErrAlreadySettled)

	// settlement journals go through the outbox as well
	assert.Positive(t, e.processor.ProcessPending(ctx))
	var paymentEntries int64
	require.NoError(t, e.tdb.DB.Model(&models.AccountingEntryModel{}).
		Where("tenant_id = ? AND origin_table = ?", e.tenantID, finance.OriginPaymentReceived).
		Count(&paymentEntries).Error)
	assert.Equal(t, int64(2), paymentEntries)

	view, err := e.titles.GetTitle(ctx, e.tenantID, posted.TitleID)
	require.NoError(t, err)
	assert.True(t, view.PendingAmount.IsZero())
	assert.Len(t, view.Settlements, 2)
}

func TestLedger_ConcurrentSettlementsSerialize(t *testing.T) {
	e := newLedgerEnv(t)
	ctx := context.Background()
	orderID := e.seedOrder(t, "2001", "90.00")

	posted, err := e.titles.PostOrderToLedger(ctx, e.tenantID, finance.TitleDirectionReceivable, orderID)
	require.NoError(t, err)

	const workers = 4
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		settled   int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.settlements.SettleTitle(ctx, appfinance.SettleTitleInput{TenantID: e.tenantID, TitleID: posted.TitleID})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, shared.ErrAlreadySettled):
				settled++
			default:
				t.Errorf("unexpected settlement error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, settled)

	var paid decimal.Decimal
	require.NoError(t, e.tdb.DB.Model(&models.SettlementLineModel{}).
		Select("COALESCE(SUM(paid_value), 0)").
		Where("title_id = ?", posted.TitleID).
		Scan(&paid).Error)
	assert.True(t, paid.Equal(decimal.RequireFromString("90")), "paid %s", paid)
}

func TestLedger_DuplicateOrderPostsOnce(t *testing.T) {
	e := newLedgerEnv(t)
	ctx := context.Background()
	orderID := e.seedOrder(t, "3001", "10.00")

	var wg sync.WaitGroup
	results := make([]*appfinance.PostOrderResult, 3)
	errs := make([]error, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = e.titles.PostOrderToLedger(ctx, e.tenantID, finance.TitleDirectionReceivable, orderID)
		}(i)
	}
	wg.Wait()

	created := 0
	for i, err := range errs {
		require.NoError(t, err)
		if results[i].Created {
			created++
		}
		assert.Equal(t, results[0].TitleID, results[i].TitleID)
	}
	assert.Equal(t, 1, created)

	var titles int64
	require.NoError(t, e.tdb.DB.Model(&models.LedgerTitleModel{}).Where("tenant_id = ?", e.tenantID).Count(&titles).Error)
	assert.Equal(t, int64(1), titles)
}
