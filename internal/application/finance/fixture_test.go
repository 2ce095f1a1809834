package finance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	appfinance "github.com/erp/ledger/internal/application/finance"
	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/erp/ledger/internal/infrastructure/event"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/erp/ledger/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// ledgerFixture wires the services against an in-memory database
type ledgerFixture struct {
	db       *gorm.DB
	scope    *persistence.GormTransactionScope
	tenantID uuid.UUID

	titles      *appfinance.LedgerTitleService
	poster      *appfinance.AccountingPoster
	settlements *appfinance.SettlementService
	diagnostics *appfinance.DiagnosticService
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	scope := persistence.NewGormTransactionScope(db, persistence.FullCapabilities(), event.NewOutboxPublisher(serializer))
	logger := zaptest.NewLogger(t)

	return &ledgerFixture{
		db:          db,
		scope:       scope,
		tenantID:    uuid.New(),
		titles:      appfinance.NewLedgerTitleService(scope, appfinance.DefaultPostingConfig(), logger),
		poster:      appfinance.NewAccountingPoster(scope, 5*time.Second, logger),
		settlements: appfinance.NewSettlementService(scope, nil, nil, appfinance.SettlementConfig{OperationTimeout: 5 * time.Second}, logger),
		diagnostics: appfinance.NewDiagnosticService(scope, appfinance.DefaultPostingConfig(), logger),
	}
}

type orderSeed struct {
	direction   trade.OrderDirection
	number      string
	total       decimal.Decimal
	items       []trade.CommercialOrderItem
	category    *uuid.UUID
	notes       string
	noCustomer  bool
	orderDate   *time.Time
	description string
}

func (f *ledgerFixture) seedOrder(t *testing.T, seed orderSeed) *trade.CommercialOrder {
	t.Helper()
	if seed.direction == "" {
		seed.direction = trade.OrderDirectionSales
	}
	order := &trade.CommercialOrder{
		ID:               uuid.New(),
		TenantID:         f.tenantID,
		Direction:        seed.direction,
		CounterpartyName: "Cliente Teste",
		OrderNumber:      seed.number,
		OrderDate:        seed.orderDate,
		TotalAmount:      seed.total,
		Description:      seed.description,
		Notes:            seed.notes,
		CategoryID:       seed.category,
		Items:            seed.items,
		CreatedAt:        time.Now(),
	}
	if !seed.noCustomer {
		order.CounterpartyID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
	}
	require.NoError(t, f.db.Create(models.CommercialOrderModelFromDomain(order)).Error)
	return order
}

// seedRule creates an active automatic rule with two fresh accounts and
// returns the debit and credit account ids
func (f *ledgerFixture) seedRule(t *testing.T, origin finance.AccountingOrigin, category *uuid.UUID) (uuid.UUID, uuid.UUID) {
	t.Helper()
	debit := models.LedgerAccountModel{ID: uuid.New(), TenantID: f.tenantID, Code: "1.1", Name: "Debit"}
	credit := models.LedgerAccountModel{ID: uuid.New(), TenantID: f.tenantID, Code: "3.1", Name: "Credit"}
	require.NoError(t, f.db.Create(&debit).Error)
	require.NoError(t, f.db.Create(&credit).Error)
	require.NoError(t, f.db.Create(&models.AccountingRuleModel{
		ID:              uuid.New(),
		TenantID:        f.tenantID,
		Origin:          origin,
		CategoryID:      category,
		DebitAccountID:  debit.ID,
		CreditAccountID: credit.ID,
		Automatic:       true,
		Active:          true,
		CreatedAt:       time.Now(),
	}).Error)
	return debit.ID, credit.ID
}

func (f *ledgerFixture) seedFinancialAccount(t *testing.T, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, f.db.Create(&models.FinancialAccountModel{ID: id, TenantID: f.tenantID, Name: name}).Error)
	return id
}

func (f *ledgerFixture) seedPaymentMethod(t *testing.T, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, f.db.Create(&models.PaymentMethodModel{ID: id, TenantID: f.tenantID, Name: name}).Error)
	return id
}

// postOrder posts a receivable for a fresh order of the given total
func (f *ledgerFixture) postOrder(t *testing.T, number string, total decimal.Decimal) *appfinance.PostOrderResult {
	t.Helper()
	order := f.seedOrder(t, orderSeed{number: number, total: total})
	res, err := f.titles.PostOrderToLedger(context.Background(), f.tenantID, finance.TitleDirectionReceivable, order.ID)
	require.NoError(t, err)
	return res
}

func (f *ledgerFixture) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := f.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// stallingScope runs fn inside the real transaction and then holds it open
// until ctx expires, so the commit never happens before the deadline.
type stallingScope struct {
	inner appfinance.TransactionScope
}

func (s stallingScope) Execute(ctx context.Context, fn func(repos appfinance.TransactionalRepositories) error) error {
	return s.inner.Execute(ctx, func(repos appfinance.TransactionalRepositories) error {
		if err := fn(repos); err != nil {
			return err
		}
		<-ctx.Done()
		return ctx.Err()
	})
}

// expiredContext is already past its deadline.
func expiredContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	t.Cleanup(cancel)
	return ctx
}

// requireTimeout asserts err is a deadline surfaced as an infrastructure error.
func requireTimeout(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	require.Equal(t, shared.CodeInfrastructure, de.Code)
}
