package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GormConfig selects the GORM instrumentation to install.
type GormConfig struct {
	Tracing   bool
	FullSQL   bool          // keep bound variables in span statements
	SlowQuery time.Duration // Default: 200ms
	DBName    string        // Default: postgresql
	Meter     metric.Meter  // nil disables query metrics
}

type gormStartKey struct{}

// InstrumentGorm registers otelgorm spans plus query latency and pool
// metrics on db. Queries slower than SlowQuery get a "slow_query" span event.
func InstrumentGorm(db *gorm.DB, cfg GormConfig, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQuery <= 0 {
		cfg.SlowQuery = 200 * time.Millisecond
	}
	if cfg.DBName == "" {
		cfg.DBName = "postgresql"
	}

	if cfg.Tracing {
		opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
		if !cfg.FullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return fmt.Errorf("register otelgorm: %w", err)
		}
	}

	g := &gormInstruments{slow: cfg.SlowQuery, logger: logger}
	if cfg.Meter != nil {
		var err error
		g.duration, err = NewHistogram(cfg.Meter, HistogramOpts{
			Name:        "erp_ledger_db_query_duration_seconds",
			Description: "Duration of ledger database statements",
			Unit:        "s",
			Boundaries:  DBDurationBuckets,
		})
		if err != nil {
			return err
		}
		g.errors, err = NewCounter(cfg.Meter, "erp_ledger_db_query_errors_total", "Failed ledger database statements", "{errors}")
		if err != nil {
			return err
		}
		if err := registerPoolGauge(db, cfg.Meter); err != nil {
			return err
		}
	}
	return g.register(db)
}

type gormInstruments struct {
	slow     time.Duration
	duration *Histogram
	errors   *Counter
	logger   *zap.Logger
}

func (g *gormInstruments) register(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		name   string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
		op     string
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register, "INSERT"},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register, "SELECT"},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register, "UPDATE"},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register, "DELETE"},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register, ""},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register, ""},
	}
	for _, h := range hooks {
		op := h.op
		if err := h.before("ledger_telemetry:before_"+h.name, markStart); err != nil {
			return err
		}
		if err := h.after("ledger_telemetry:after_"+h.name, func(tx *gorm.DB) { g.observe(tx, op) }); err != nil {
			return err
		}
	}
	return nil
}

func markStart(tx *gorm.DB) {
	if tx.Statement.Context == nil {
		tx.Statement.Context = context.Background()
	}
	tx.Statement.Context = context.WithValue(tx.Statement.Context, gormStartKey{}, time.Now())
}

func (g *gormInstruments) observe(tx *gorm.DB, op string) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	start, ok := ctx.Value(gormStartKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	if op == "" {
		op = statementKind(tx.Statement.SQL.String())
	}
	attrs := []attribute.KeyValue{
		AttrDBOperation.String(op),
		AttrDBTable.String(tx.Statement.Table),
	}

	if g.duration != nil {
		g.duration.RecordDuration(ctx, elapsed, attrs...)
	}
	if tx.Error != nil && g.errors != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		g.errors.Inc(ctx, attrs...)
	}
	if elapsed >= g.slow {
		span := trace.SpanFromContext(ctx)
		span.AddEvent("slow_query", trace.WithAttributes(
			append(attrs, attribute.Int64("db.duration_ms", elapsed.Milliseconds()))...,
		))
		g.logger.Warn("slow ledger query",
			zap.String("operation", op),
			zap.String("table", tx.Statement.Table),
			zap.Duration("elapsed", elapsed),
		)
	}
}

func statementKind(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	for _, kind := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sql, kind) {
			return kind
		}
	}
	return "OTHER"
}

func registerPoolGauge(db *gorm.DB, meter metric.Meter) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("pool metrics: %w", err)
	}
	conns, err := meter.Int64ObservableGauge("erp_ledger_db_connections",
		metric.WithDescription("Database connections by pool state"),
		metric.WithUnit("{connections}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create pool gauge: %w", err)
	}
	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := sqlDB.Stats()
		o.ObserveInt64(conns, int64(s.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(conns, int64(s.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(conns, int64(s.MaxOpenConnections), metric.WithAttributes(AttrDBState.String("max")))
		return nil
	}, conns)
	return err
}
