package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/erp/ledger/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedTitleRow(t *testing.T, db *gorm.DB, tenantID uuid.UUID, direction finance.TitleDirection, status finance.TitleStatus) {
	t.Helper()
	now := time.Now()
	row := models.LedgerTitleModel{
		ID:             uuid.New(),
		TenantID:       tenantID,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
		Direction:      direction,
		SourceOrderID:  uuid.New(),
		CounterpartyID: uuid.New(),
		DocumentNumber: uuid.NewString()[:12],
		Status:         status,
		IssueDate:      now,
		LaunchDate:     now,
		DueDate:        now,
		NetAmount:      decimal.NewFromInt(10),
	}
	require.NoError(t, db.Create(&row).Error)
}

func TestGormLedgerMetricsProvider(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	tenantA, tenantB := uuid.New(), uuid.New()

	seedTitleRow(t, db, tenantA, finance.TitleDirectionReceivable, finance.TitleStatusPending)
	seedTitleRow(t, db, tenantA, finance.TitleDirectionReceivable, finance.TitleStatusPartial)
	seedTitleRow(t, db, tenantA, finance.TitleDirectionReceivable, finance.TitleStatusReceived)
	seedTitleRow(t, db, tenantA, finance.TitleDirectionPayable, finance.TitleStatusPending)
	seedTitleRow(t, db, tenantB, finance.TitleDirectionPayable, finance.TitleStatusPaid)

	now := time.Now()
	require.NoError(t, db.Create(&models.OutboxEntryModel{
		ID:            uuid.New(),
		TenantID:      tenantA,
		EventID:       uuid.New(),
		EventType:     finance.EventTypeTitleCreated,
		AggregateID:   uuid.New(),
		AggregateType: finance.AggregateTypeLedgerTitle,
		Payload:       []byte(`{}`),
		Status:        shared.OutboxStatusDead,
		CreatedAt:     now,
		UpdatedAt:     now,
	}).Error)

	p := telemetry.NewGormLedgerMetricsProvider(db)

	open, err := p.OpenTitleCount(ctx, tenantA, "RECEIVABLE")
	require.NoError(t, err)
	assert.Equal(t, int64(2), open)

	open, err = p.OpenTitleCount(ctx, tenantB, "PAYABLE")
	require.NoError(t, err)
	assert.Equal(t, int64(0), open)

	dead, err := p.DeadOutboxCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dead)

	tenants, err := p.ActiveTenantIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{tenantA, tenantB}, tenants)
}
