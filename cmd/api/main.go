package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"peerpay-settlement/config"
	"peerpay-settlement/internal/adapter/gateway"
	"peerpay-settlement/internal/adapter/gateway/cardgate"
	"peerpay-settlement/internal/adapter/gateway/paywave"
	httpHandler "peerpay-settlement/internal/adapter/http/handler"
	pgStorage "peerpay-settlement/internal/adapter/storage/postgres"
	redisStorage "peerpay-settlement/internal/adapter/storage/redis"
	"peerpay-settlement/internal/core/ports"
	"peerpay-settlement/internal/jobs"
	"peerpay-settlement/internal/service"
	"peerpay-settlement/pkg/logger"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting PeerPay Settlement")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// River keeps its job tables in the same database
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create River migrator")
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		log.Fatal().Err(err).Msg("River migrate up failed")
	}

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	txRepo := pgStorage.NewTransactionRepo(pool)
	balanceRepo := pgStorage.NewBalanceRepo(pool)
	recordRepo := pgStorage.NewSettlementRecordRepo(pool)
	subRepo := pgStorage.NewSubscriptionRepo(pool)
	eventLogRepo := pgStorage.NewEventLogRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	settleCache := redisStorage.NewSettleCache(rdb)

	// Gateway adapters share one bounded HTTP client
	gatewayClient := &http.Client{Timeout: cfg.Gateways.Timeout}
	sigSvc := service.NewHMACSignatureService()
	registry := gateway.NewRegistry(
		cardgate.New(cfg.Gateways.CardGate, gatewayClient, log),
		paywave.New(cfg.Gateways.PayWave, gatewayClient, sigSvc, log),
	)

	// Initialize business services
	dispatcher := service.NewEventDispatcher(
		eventLogRepo, sigSvc,
		&http.Client{Timeout: 10 * time.Second},
		cfg.Events.SinkURL, cfg.Events.SigningSecret, log,
	)
	ledgerSvc := service.NewLedgerService(balanceRepo, recordRepo, transactor, log)
	subSvc := service.NewSubscriptionService(subRepo, transactor, log)
	settlementSvc := service.NewSettlementService(
		txRepo, recordRepo, balanceRepo,
		ledgerSvc, subSvc, registry, settleCache, dispatcher, transactor,
		cfg.Settlement, log,
	)

	// Periodic sweeps: provider reconciliation and subscription expiry
	workers := river.NewWorkers()
	river.AddWorker(workers, jobs.NewReconcileWorker(settlementSvc, log))
	river.AddWorker(workers, jobs.NewExpireSubscriptionsWorker(subSvc, log))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
		},
		Workers: workers,
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(cfg.Settlement.SweepInterval),
				func() (river.JobArgs, *river.InsertOpts) {
					return jobs.ReconcileJobArgs{MaxAge: cfg.Settlement.ReconcileMaxAge}, nil
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
			river.NewPeriodicJob(
				river.PeriodicInterval(cfg.Settlement.SweepInterval),
				func() (river.JobArgs, *river.InsertOpts) {
					return jobs.ExpireSubscriptionsJobArgs{}, nil
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create River client")
	}
	if err := riverClient.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start River client")
	}

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		Settlements:    settlementSvc,
		Ledger:         ledgerSvc,
		TxRepo:         txRepo,
		SubRepo:        subRepo,
		Registry:       registry,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := riverClient.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("River client forced to stop")
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Event deliveries still in flight at shutdown")
	}

	log.Info().Msg("Server exited")
}
