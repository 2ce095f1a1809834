package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// LedgerMetrics tracks postings, journals and settlements of the ledger.
type LedgerMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	titlesPostedTotal      *Counter
	journalsPostedTotal    *Counter
	settlementsTotal       *Counter
	settlementAmountCents  *Counter
	postingFailuresTotal   *Counter
	duplicatePostingsTotal *Counter
	eventDeliveriesTotal   *Counter
	// Gauge metrics (point-in-time values)
	openTitles        *Gauge
	deadOutboxEntries *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	provider LedgerMetricsProvider
}

// LedgerMetricsProvider supplies state for the periodic gauges without
// coupling telemetry to the finance domain.
type LedgerMetricsProvider interface {
	// OpenTitleCount returns the number of titles still pending or partially settled
	OpenTitleCount(ctx context.Context, tenantID uuid.UUID, direction string) (int64, error)

	// DeadOutboxCount returns outbox entries that exhausted their retries
	DeadOutboxCount(ctx context.Context) (int64, error)

	// ActiveTenantIDs lists tenants that own at least one title
	ActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// LedgerMetricsConfig holds configuration for ledger metrics.
type LedgerMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	Provider        LedgerMetricsProvider
}

// NewLedgerMetrics creates a new LedgerMetrics instance.
func NewLedgerMetrics(cfg LedgerMetricsConfig) (*LedgerMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	lm := &LedgerMetrics{
		meter:    cfg.Meter,
		logger:   logger,
		stopChan: make(chan struct{}),
		provider: cfg.Provider,
	}

	counters := []struct {
		target           **Counter
		name, desc, unit string
	}{
		{&lm.titlesPostedTotal, "erp_ledger_titles_posted_total", "Total number of ledger titles created from orders", "{titles}"},
		{&lm.journalsPostedTotal, "erp_ledger_journals_posted_total", "Total number of journal entries posted", "{entries}"},
		{&lm.settlementsTotal, "erp_ledger_settlements_total", "Total number of settlements recorded", "{settlements}"},
		{&lm.settlementAmountCents, "erp_ledger_settlement_amount_total", "Total settled amount in cents", "{cents}"},
		{&lm.postingFailuresTotal, "erp_ledger_posting_failures_total", "Total number of failed ledger operations", "{failures}"},
		{&lm.duplicatePostingsTotal, "erp_ledger_duplicate_postings_total", "Total number of postings skipped as duplicates", "{postings}"},
		{&lm.eventDeliveriesTotal, "erp_ledger_event_deliveries_total", "Ledger event deliveries by outcome (processed, duplicate, failed)", "{events}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.desc, c.unit)
		if err != nil {
			return nil, err
		}
		*c.target = counter
	}

	var err error
	lm.openTitles, err = NewGauge(cfg.Meter, "erp_ledger_open_titles", "Titles pending or partially settled", "{titles}")
	if err != nil {
		return nil, err
	}
	lm.deadOutboxEntries, err = NewGauge(cfg.Meter, "erp_ledger_outbox_dead_entries", "Outbox entries that exhausted retries", "{entries}")
	if err != nil {
		return nil, err
	}

	return lm, nil
}

// =============================================================================
// Posting Metrics
// =============================================================================

// RecordTitlePosted records a title created from an order.
func (lm *LedgerMetrics) RecordTitlePosted(ctx context.Context, tenantID uuid.UUID, direction string) {
	lm.titlesPostedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrDirection.String(direction),
	)
}

// RecordDuplicatePosting records a posting answered with an existing title.
func (lm *LedgerMetrics) RecordDuplicatePosting(ctx context.Context, tenantID uuid.UUID, direction string) {
	lm.duplicatePostingsTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrDirection.String(direction),
	)
}

// RecordJournalPosted records a journal entry for the given origin.
func (lm *LedgerMetrics) RecordJournalPosted(ctx context.Context, tenantID uuid.UUID, origin string) {
	lm.journalsPostedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrOrigin.String(origin),
	)
}

// RecordSettlement records both settlement count and amount.
func (lm *LedgerMetrics) RecordSettlement(ctx context.Context, tenantID uuid.UUID, direction string, amount decimal.Decimal) {
	attrs := []attribute.KeyValue{
		AttrTenantID.String(tenantID.String()),
		AttrDirection.String(direction),
	}
	lm.settlementsTotal.Inc(ctx, attrs...)
	lm.settlementAmountCents.Add(ctx, amount.Mul(decimal.NewFromInt(100)).IntPart(), attrs...)
}

// RecordFailure records a failed ledger operation.
func (lm *LedgerMetrics) RecordFailure(ctx context.Context, tenantID uuid.UUID, operation, code string) {
	lm.postingFailuresTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrOperation.String(operation),
		AttrErrorCode.String(code),
	)
}

// RecordEventDelivery counts one delivery of a ledger event to its handler.
func (lm *LedgerMetrics) RecordEventDelivery(ctx context.Context, eventType, outcome string) {
	lm.eventDeliveriesTotal.Inc(ctx,
		AttrEventType.String(eventType),
		AttrOutcome.String(outcome),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics.
// This is non-blocking - use Stop() to stop collection.
func (lm *LedgerMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	lm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go lm.runPeriodicCollection(ctx, interval)
	})
}

func (lm *LedgerMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lm.collect(ctx)

	for {
		select {
		case <-lm.stopChan:
			lm.logger.Info("Stopping periodic ledger metrics collection")
			return
		case <-ctx.Done():
			lm.logger.Info("Context cancelled, stopping periodic ledger metrics collection")
			return
		case <-ticker.C:
			lm.collect(ctx)
		}
	}
}

func (lm *LedgerMetrics) collect(ctx context.Context) {
	if lm.provider == nil {
		lm.logger.Debug("No ledger metrics provider configured, skipping collection")
		return
	}

	if dead, err := lm.provider.DeadOutboxCount(ctx); err != nil {
		lm.logger.Warn("Failed to count dead outbox entries", zap.Error(err))
	} else {
		lm.deadOutboxEntries.Record(ctx, dead)
	}

	tenantIDs, err := lm.provider.ActiveTenantIDs(ctx)
	if err != nil {
		lm.logger.Error("Failed to get tenant IDs for metrics collection", zap.Error(err))
		return
	}

	for _, tenantID := range tenantIDs {
		for _, direction := range []string{"RECEIVABLE", "PAYABLE"} {
			count, err := lm.provider.OpenTitleCount(ctx, tenantID, direction)
			if err != nil {
				lm.logger.Warn("Failed to count open titles for tenant",
					zap.String("tenant_id", tenantID.String()),
					zap.String("direction", direction),
					zap.Error(err),
				)
				continue
			}
			lm.openTitles.Record(ctx, count,
				AttrTenantID.String(tenantID.String()),
				AttrDirection.String(direction),
			)
		}
	}
}

// Stop stops the periodic collection.
func (lm *LedgerMetrics) Stop() {
	lm.stopOnce.Do(func() {
		close(lm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewLedgerMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
