package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	financeapp "github.com/erp/ledger/internal/application/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/cache"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/event"
	"github.com/erp/ledger/internal/infrastructure/format"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/internal/infrastructure/storage"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/erp/ledger/internal/interfaces/http/handler"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/erp/ledger/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/erp/ledger/docs"
)

//	@title			ERP Ledger API
//	@version		1.0
//	@description	Posting of commercial orders into receivable and payable titles, journal entries and settlements

//	@contact.name	Ledger Team
//	@contact.url	https://github.com/erp/ledger

//	@host		localhost:8080
//	@BasePath	/api/v1/ledger

//	@securityDefinitions.apikey	TenantHeader
//	@in							header
//	@name						X-Tenant-ID
//	@description				Tenant UUID; every ledger route is scoped to it

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Setup(rootCtx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.Telemetry.ServiceVersion,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
		SpanProfiles:      cfg.Telemetry.ProfilingEnabled && cfg.Telemetry.SpanProfiles,
	}, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to set up telemetry", zap.Error(err))
	}
	log := providers.BridgeLogger(baseLog, logger.ParseLevel(cfg.Log.Level))
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.Bool("telemetry", providers.Enabled()),
	)

	profiler, err := telemetry.StartProfiler(telemetry.ProfilerConfig{
		Enabled:            cfg.Telemetry.ProfilingEnabled,
		ServerAddress:      cfg.Telemetry.PyroscopeEndpoint,
		ApplicationName:    cfg.Telemetry.ServiceName,
		ContentionProfiles: cfg.Telemetry.ProfilingContention,
	}, log)
	if err != nil {
		log.Warn("Profiler not started", zap.Error(err))
	}

	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database,
		logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Database.LogLevel),
			logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh)))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	meter := providers.Meter("erp-ledger")
	if err := telemetry.InstrumentGorm(db.DB, telemetry.GormConfig{
		Tracing:   cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		FullSQL:   cfg.Telemetry.DBLogFullSQL,
		SlowQuery: cfg.Telemetry.DBSlowQueryThresh,
		Meter:     meter,
	}, log); err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}

	caps, err := persistence.ResolveCapabilities(rootCtx, db.DB, cfg.Ledger.SchemaVersion, cfg.Ledger.VerifySchema, log)
	if err != nil {
		log.Fatal("Failed to resolve ledger schema capabilities", zap.Error(err))
	}
	log.Info("Ledger schema capabilities resolved", zap.Int("schema_version", caps.Version()))

	// Events leave the posting transaction through the outbox
	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	scope := persistence.NewGormTransactionScope(db.DB, caps, event.NewOutboxPublisher(serializer))

	formatter, err := format.NewMoneyFormatter(cfg.Ledger.Locale, cfg.Ledger.Currency)
	if err != nil {
		log.Fatal("Invalid ledger currency settings", zap.Error(err))
	}

	attachments := newAttachmentStore(rootCtx, cfg, log)

	ledgerMetrics, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{
		Meter:    meter,
		Logger:   log,
		Provider: telemetry.NewGormLedgerMetricsProvider(db.DB),
	})
	if err != nil {
		log.Fatal("Failed to create ledger metrics", zap.Error(err))
	}
	ledgerMetrics.StartPeriodicCollection(rootCtx, cfg.Telemetry.MetricsInterval)
	defer ledgerMetrics.Stop()

	titleService := financeapp.NewLedgerTitleService(scope, financeapp.PostingConfig{
		ReceivablePrefix: cfg.Ledger.ReceivablePrefix,
		PayablePrefix:    cfg.Ledger.PayablePrefix,
		OperationTimeout: cfg.Ledger.OperationTimeout,
	}, log)
	titleService.SetMetrics(ledgerMetrics)

	poster := financeapp.NewAccountingPoster(scope, cfg.Ledger.OperationTimeout, log)
	poster.SetMetrics(ledgerMetrics)

	settlementService := financeapp.NewSettlementService(scope, attachments, formatter, financeapp.SettlementConfig{
		AttachmentKeyPrefix: cfg.Storage.KeyPrefix,
		OperationTimeout:    cfg.Ledger.OperationTimeout,
	}, log)
	settlementService.SetMetrics(ledgerMetrics)

	diagnosticService := financeapp.NewDiagnosticService(scope, financeapp.PostingConfig{
		ReceivablePrefix: cfg.Ledger.ReceivablePrefix,
		PayablePrefix:    cfg.Ledger.PayablePrefix,
	}, log)

	// Journal posting runs from outbox delivery, after the title or
	// settlement transaction committed
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore(rootCtx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer idempotencyStore.Close()

	bus := event.NewInMemoryEventBus(log)
	eventHandlers := []shared.EventHandler{
		financeapp.NewTitleCreatedHandler(poster, log),
		financeapp.NewSettlementRecordedHandler(poster, log),
	}
	if cfg.Event.IdempotencyEnabled {
		eventHandlers = event.WrapHandlersWithIdempotency(eventHandlers, idempotencyStore, log,
			event.WithIdempotencyConfig(shared.IdempotencyConfig{TTL: cfg.Event.IdempotencyTTL, Enabled: true}),
			event.WithDeliveryRecorder(ledgerMetrics))
	}
	for _, h := range eventHandlers {
		bus.Subscribe(h, h.EventTypes()...)
	}
	if err := bus.Start(rootCtx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	processor := event.NewOutboxProcessor(event.NewGormOutboxRepository(db.DB), bus, serializer, event.OutboxProcessorConfig{
		BatchSize:        cfg.Event.BatchSize,
		PollInterval:     cfg.Event.PollInterval,
		CleanupEnabled:   cfg.Event.CleanupEnabled,
		CleanupRetention: cfg.Event.CleanupRetention,
		CleanupInterval:  time.Hour,
	}, log)
	if cfg.Event.ProcessorEnabled {
		if err := processor.Start(rootCtx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		log.Info("Outbox processor started",
			zap.Int("batch_size", cfg.Event.BatchSize),
			zap.Duration("poll_interval", cfg.Event.PollInterval),
		)
	} else {
		log.Warn("Outbox processor disabled, journal entries are only posted through the API")
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get sql.DB", zap.Error(err))
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	tenancy := middleware.DefaultTenantConfig()
	tenancy.Logger = log
	engine := router.NewEngine(router.Handlers{
		Ledger:      handler.NewLedgerHandler(titleService, poster, diagnosticService, log),
		Settlements: handler.NewSettlementHandler(settlementService, cfg.HTTP.MaxBodySize, log),
		Health:      handler.NewHealthHandler(sqlDB, log),
	}, router.Options{
		Config:  cfg,
		Logger:  log,
		Meter:   meter,
		Tenancy: tenancy,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if cfg.Event.ProcessorEnabled {
		if err := processor.Stop(ctx); err != nil {
			log.Warn("Outbox processor did not stop cleanly", zap.Error(err))
		}
	}
	if err := bus.Stop(ctx); err != nil {
		log.Warn("Event bus did not stop cleanly", zap.Error(err))
	}
	if profiler != nil {
		if err := profiler.Stop(); err != nil {
			log.Warn("Profiler did not stop cleanly", zap.Error(err))
		}
	}
	if err := providers.Shutdown(ctx); err != nil {
		log.Warn("Telemetry shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newAttachmentStore returns the S3 store when storage is enabled. Outside
// production a disabled store falls back to memory; in production
// attachments are then rejected.
func newAttachmentStore(ctx context.Context, cfg *config.Config, log *zap.Logger) financeapp.AttachmentStore {
	if !cfg.Storage.Enabled {
		if cfg.App.Env == "production" {
			log.Warn("Attachment storage disabled, settlements with attachments will be rejected")
			return nil
		}
		log.Warn("Attachment storage disabled, keeping attachments in memory")
		return storage.NewMemoryAttachmentStore()
	}

	store, err := storage.NewS3AttachmentStore(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to create attachment store", zap.Error(err))
	}
	if err := store.EnsureBucket(ctx); err != nil {
		log.Fatal("Attachment bucket unavailable", zap.Error(err), zap.String("bucket", store.Bucket()))
	}
	log.Info("Using S3 attachment store", zap.String("bucket", store.Bucket()))
	return store
}
