package finance_test

import (
	"context"
	"testing"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnose_MissingOrder(t *testing.T) {
	f := newLedgerFixture(t)

	d, err := f.diagnostics.Diagnose(context.Background(), f.tenantID, finance.TitleDirectionReceivable, uuid.New())
	require.NoError(t, err)
	assert.False(t, d.Stages.Order)
	assert.False(t, d.Stages.Title)
	assert.False(t, d.Stages.JournalEntry)
	assert.Nil(t, d.Stages.TitleLinkedBack)
	assert.True(t, d.SumDebit.IsZero())
}

func TestDiagnose_OrderWithoutTitle(t *testing.T) {
	f := newLedgerFixture(t)
	order := f.seedOrder(t, orderSeed{number: "PV-1", total: dec("10")})

	d, err := f.diagnostics.Diagnose(context.Background(), f.tenantID, finance.TitleDirectionReceivable, order.ID)
	require.NoError(t, err)
	assert.True(t, d.Stages.Order)
	require.NotNil(t, d.Order)
	assert.Equal(t, "PV-1", d.Order.OrderNumber)
	assert.False(t, d.Stages.Title)
	assert.Nil(t, d.Stages.TitleLinkedBack)
}

func TestDiagnose_TitleWithoutJournal(t *testing.T) {
	f := newLedgerFixture(t)
	order := f.seedOrder(t, orderSeed{number: "PV-2", total: dec("10")})
	_, err := f.titles.PostOrderToLedger(context.Background(), f.tenantID, finance.TitleDirectionReceivable, order.ID)
	require.NoError(t, err)

	d, err := f.diagnostics.Diagnose(context.Background(), f.tenantID, finance.TitleDirectionReceivable, order.ID)
	require.NoError(t, err)
	assert.True(t, d.Stages.Title)
	assert.False(t, d.Stages.JournalEntry)
	assert.False(t, d.Stages.Balanced)
	assert.Nil(t, d.Stages.TitleLinkedBack)
}

func TestDiagnose_OrderSharingDocumentNumber(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	first := f.postOrder(t, "NF-77", dec("100"))

	other := f.seedOrder(t, orderSeed{number: "NF-77", total: dec("250")})
	res, err := f.titles.PostOrderToLedger(ctx, f.tenantID, finance.TitleDirectionReceivable, other.ID)
	require.NoError(t, err)
	require.False(t, res.Created)

	d, err := f.diagnostics.Diagnose(ctx, f.tenantID, finance.TitleDirectionReceivable, other.ID)
	require.NoError(t, err)
	assert.True(t, d.Stages.Order)
	assert.True(t, d.Stages.Title)
	require.NotNil(t, d.Title)
	assert.Equal(t, first.TitleID, d.Title.ID)
	assert.Equal(t, "NF-77", d.Title.DocumentNumber)
}

func TestDiagnose_FullChain(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	f.seedRule(t, finance.OriginReceivable, nil)
	order := f.seedOrder(t, orderSeed{number: "PV-3", total: dec("100")})
	posted, err := f.titles.PostOrderToLedger(ctx, f.tenantID, finance.TitleDirectionReceivable, order.ID)
	require.NoError(t, err)
	journal, err := f.poster.PostJournalForTitle(ctx, f.tenantID, posted.TitleID)
	require.NoError(t, err)

	d, err := f.diagnostics.Diagnose(ctx, f.tenantID, finance.TitleDirectionReceivable, order.ID)
	require.NoError(t, err)
	assert.True(t, d.Stages.Order)
	assert.True(t, d.Stages.Title)
	assert.True(t, d.Stages.JournalEntry)
	assert.True(t, d.Stages.JournalLines)
	assert.True(t, d.Stages.Balanced)
	require.NotNil(t, d.Stages.TitleLinkedBack)
	assert.True(t, *d.Stages.TitleLinkedBack)

	require.NotNil(t, d.Entry)
	assert.Equal(t, journal.EntryID, d.Entry.ID)
	assert.Len(t, d.Entry.Lines, 2)
	assert.True(t, d.SumDebit.Equal(dec("100")))
	assert.True(t, d.SumCredit.Equal(dec("100")))
}

func TestDiagnose_DetectsBrokenChain(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	f.seedRule(t, finance.OriginReceivable, nil)
	order := f.seedOrder(t, orderSeed{number: "PV-4", total: dec("100")})
	posted, err := f.titles.PostOrderToLedger(ctx, f.tenantID, finance.TitleDirectionReceivable, order.ID)
	require.NoError(t, err)
	journal, err := f.poster.PostJournalForTitle(ctx, f.tenantID, posted.TitleID)
	require.NoError(t, err)

	// unlink the title and tamper with one journal line
	require.NoError(t, f.db.Model(&models.LedgerTitleModel{}).Where("id = ?", posted.TitleID).Update("accounting_entry_id", nil).Error)
	require.NoError(t, f.db.Model(&models.AccountingEntryLineModel{}).
		Where("entry_id = ? AND credit > 0", journal.EntryID).
		Update("credit", dec("50")).Error)

	d, err := f.diagnostics.Diagnose(ctx, f.tenantID, finance.TitleDirectionReceivable, order.ID)
	require.NoError(t, err)
	assert.True(t, d.Stages.JournalEntry)
	assert.True(t, d.Stages.JournalLines)
	assert.False(t, d.Stages.Balanced)
	require.NotNil(t, d.Stages.TitleLinkedBack)
	assert.False(t, *d.Stages.TitleLinkedBack)
	assert.True(t, d.SumCredit.Equal(dec("50")))
}

func TestDiagnose_Validation(t *testing.T) {
	f := newLedgerFixture(t)
	_, err := f.diagnostics.Diagnose(context.Background(), uuid.Nil, finance.TitleDirectionReceivable, uuid.New())
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = f.diagnostics.Diagnose(context.Background(), f.tenantID, finance.TitleDirection("x"), uuid.New())
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
