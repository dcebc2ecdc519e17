package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	chitapp "github.com/retailerp/chitledger/internal/application/chit"
	"github.com/retailerp/chitledger/internal/infrastructure/auth"
	"github.com/retailerp/chitledger/internal/infrastructure/cache"
	"github.com/retailerp/chitledger/internal/infrastructure/config"
	"github.com/retailerp/chitledger/internal/infrastructure/event"
	"github.com/retailerp/chitledger/internal/infrastructure/logger"
	"github.com/retailerp/chitledger/internal/infrastructure/persistence"
	"github.com/retailerp/chitledger/internal/infrastructure/telemetry"
	"github.com/retailerp/chitledger/internal/interfaces/http/handler"
	"github.com/retailerp/chitledger/internal/interfaces/http/middleware"
	"github.com/retailerp/chitledger/internal/interfaces/http/router"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

//	@title			Chit Ledger API
//	@version		1.0
//	@description	Chit-fund plans, enrollments and installment ledger
//	@BasePath		/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting chit ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	// Database
	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(logger.ForConfig(log, cfg.Log.Level, 0)))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	if err := telemetry.RegisterDBTracing(db.DB, dbTracing, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DefaultDBMetricsConfig(), log)
	if err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}
	if dbMetrics != nil {
		if sqlDB, err := db.DB.DB(); err == nil {
			dbMetrics.StartPoolStatsCollection(ctx, sqlDB)
		}
		defer dbMetrics.Stop()
	}

	// Repositories
	planRepo := persistence.NewGormChitPlanRepository(db.DB)
	subscriptionRepo := persistence.NewGormChitSubscriptionRepository(db.DB)
	installmentRepo := persistence.NewGormChitInstallmentRepository(db.DB)
	chitNumbers := persistence.NewGormChitNumberSequence(db.DB, cfg.Ledger.ChitNumberSequence)
	customers := persistence.NewGormCustomerDirectory(db.DB)

	// Event bus with the audit log subscriber
	eventSerializer := event.NewEventSerializer()
	event.RegisterChitEvents(eventSerializer)
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(eventSerializer, log), eventSerializer.RegisteredTypes()...)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Application services
	var ledgerMetrics *telemetry.LedgerMetrics
	var httpMeter metric.Meter
	if meterProvider.IsEnabled() {
		if ledgerMetrics, err = telemetry.NewLedgerMetrics(meterProvider.Meter("chit.ledger")); err != nil {
			log.Fatal("Failed to create ledger metrics", zap.Error(err))
		}
		httpMeter = meterProvider.Meter("http.server")
	}

	planService := chitapp.NewPlanService(planRepo, subscriptionRepo)
	enrollmentService := chitapp.NewEnrollmentService(planRepo, subscriptionRepo, installmentRepo, chitNumbers, customers)
	ledgerService := chitapp.NewLedgerService(planRepo, subscriptionRepo, installmentRepo)
	queryService := chitapp.NewQueryService(subscriptionRepo, installmentRepo)

	planService.SetEventPublisher(eventBus)
	planService.SetLedgerMetrics(ledgerMetrics)
	enrollmentService.SetEventPublisher(eventBus)
	enrollmentService.SetLedgerMetrics(ledgerMetrics)
	ledgerService.SetEventPublisher(eventBus)
	ledgerService.SetLedgerMetrics(ledgerMetrics)

	// Idempotency store: Redis when enabled and reachable, else in-memory
	var idempotency gin.HandlerFunc
	var idempotencyStore interface{ Close() error }
	if cfg.Idempotency.Enabled {
		store, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cfg.Idempotency,
			cache.WithLogger(log),
		).CreateStore(ctx)
		if err != nil {
			log.Fatal("Failed to create idempotency store", zap.Error(err))
		}
		idempotencyStore = store
		idempotency = middleware.Idempotency(middleware.IdempotencyConfig{
			Store: store,
			TTL:   cfg.Idempotency.TTL,
		})
	}

	var rateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	chitRoutes := router.NewChitRoutes(router.ChitHandlers{
		Plans:         handler.NewPlanHandler(planService),
		Subscriptions: handler.NewSubscriptionHandler(enrollmentService, ledgerService, queryService),
		Installments:  handler.NewInstallmentHandler(ledgerService, queryService),
	}, idempotency)

	engine, err := router.NewEngine(router.EngineConfig{
		Logger: log,
		HTTP:   cfg.HTTP,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		Meter:       httpMeter,
		JWTService:  auth.NewJWTService(cfg.JWT),
		RateLimiter: rateLimiter,
		Health:      handler.NewHealthHandler(db).Check,
	}, chitRoutes)
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

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

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if rateLimiter != nil {
		rateLimiter.Stop()
	}
	if idempotencyStore != nil {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
