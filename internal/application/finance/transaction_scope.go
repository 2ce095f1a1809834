package finance

import (
	"context"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/trade"
)

// TransactionScope runs ledger work in one database transaction. The
// function's error rolls everything back, including outbox events.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories gives access to repositories that share the
// surrounding transaction.
type TransactionalRepositories interface {
	Orders() trade.CommercialOrderReader
	Titles() finance.LedgerTitleRepository
	Entries() finance.AccountingEntryRepository
	Rules() finance.AccountingRuleRepository
	Settlements() finance.SettlementRepository
	Lookups() finance.LookupRepository
	// Events writes integration events to the outbox of the transaction
	Events() EventWriter
}

// EventWriter persists domain events for asynchronous delivery
type EventWriter interface {
	Write(ctx context.Context, events ...shared.DomainEvent) error
}
