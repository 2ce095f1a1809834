package persistence

import (
	"context"
	"errors"

	appfinance "github.com/erp/ledger/internal/application/finance"
	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/erp/ledger/internal/infrastructure/event"
	"gorm.io/gorm"
)

// GormTransactionScope implements appfinance.TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db        *gorm.DB
	caps      *SchemaCapabilities
	publisher *event.OutboxPublisher
}

// NewGormTransactionScope creates a scope whose repositories write the
// columns allowed by caps and whose events go to the outbox through publisher.
func NewGormTransactionScope(db *gorm.DB, caps *SchemaCapabilities, publisher *event.OutboxPublisher) *GormTransactionScope {
	if caps == nil {
		caps = FullCapabilities()
	}
	return &GormTransactionScope{db: db, caps: caps, publisher: publisher}
}

// Execute runs fn within a database transaction. If fn returns an error or
// the context expires, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appfinance.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, caps: s.caps, publisher: s.publisher})
	})
	return contextError(err)
}

// contextError turns an expired or canceled context that escaped the
// repositories into an infrastructure error. Other errors pass through.
func contextError(err error) error {
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return shared.NewInfrastructureError("operation timeout", err)
	case errors.Is(err, context.Canceled):
		return shared.NewInfrastructureError("operation canceled", err)
	}
	return err
}

type gormTransactionalRepositories struct {
	tx        *gorm.DB
	caps      *SchemaCapabilities
	publisher *event.OutboxPublisher
}

func (r *gormTransactionalRepositories) Orders() trade.CommercialOrderReader {
	return NewGormCommercialOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) Titles() finance.LedgerTitleRepository {
	return NewGormLedgerTitleRepository(r.tx).WithCapabilities(r.caps)
}

func (r *gormTransactionalRepositories) Entries() finance.AccountingEntryRepository {
	return NewGormAccountingEntryRepository(r.tx)
}

func (r *gormTransactionalRepositories) Rules() finance.AccountingRuleRepository {
	return NewGormAccountingRuleRepository(r.tx)
}

func (r *gormTransactionalRepositories) Settlements() finance.SettlementRepository {
	return NewGormSettlementRepository(r.tx).WithCapabilities(r.caps)
}

func (r *gormTransactionalRepositories) Lookups() finance.LookupRepository {
	return NewGormLookupRepository(r.tx)
}

func (r *gormTransactionalRepositories) Events() appfinance.EventWriter {
	return outboxWriter{tx: r.tx, publisher: r.publisher}
}

// outboxWriter binds the publisher to the transaction
type outboxWriter struct {
	tx        *gorm.DB
	publisher *event.OutboxPublisher
}

func (w outboxWriter) Write(ctx context.Context, events ...shared.DomainEvent) error {
	if w.publisher == nil || len(events) == 0 {
		return nil
	}
	if err := w.publisher.PublishWithTx(ctx, w.tx, events...); err != nil {
		return shared.NewInfrastructureError("write outbox", err)
	}
	return nil
}

var (
	_ appfinance.TransactionScope          = (*GormTransactionScope)(nil)
	_ appfinance.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
