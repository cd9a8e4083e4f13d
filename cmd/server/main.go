package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"flightsurety-ledger/internal/domain/entity"
	"flightsurety-ledger/internal/domain/repository"
	"flightsurety-ledger/internal/infrastructure/auth"
	"flightsurety-ledger/internal/infrastructure/config"
	"flightsurety-ledger/internal/infrastructure/persistence"
	"flightsurety-ledger/internal/infrastructure/router"
	"flightsurety-ledger/internal/interface/handler"
	"flightsurety-ledger/internal/interface/payout"
	ledgerRepo "flightsurety-ledger/internal/interface/repository"
	"flightsurety-ledger/internal/usecase"
	"flightsurety-ledger/pkg/logger"
	"flightsurety-ledger/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger("info").Fatal("Failed to load config", "error", err)
	}

	// Create logger
	log := logger.NewLogger(cfg.LogLevel)
	defer log.Sync()
	log.Info("Starting FlightSurety Ledger", "version", cfg.AppVersion)

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var checks []func(ctx context.Context) error

	// Set up ledger storage
	var uow repository.UnitOfWork
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		log.Info("Connecting to PostgreSQL")
		gormDB, err := persistence.NewPostgresDB(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal("Failed to connect to PostgreSQL", "error", err)
		}
		store := ledgerRepo.NewGormStore(gormDB)
		if err := store.Migrate(ctx); err != nil {
			log.Fatal("Failed to migrate ledger schema", "error", err)
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			log.Fatal("Failed to get PostgreSQL handle", "error", err)
		}
		defer sqlDB.Close()
		checks = append(checks, sqlDB.PingContext)
		uow = store
	default:
		log.Warn("Using in-memory ledger storage, state is lost on restart")
		uow = ledgerRepo.NewMemoryStore()
	}

	// Set up event log
	var events repository.EventRepository
	var mongoClient *mongo.Client
	switch cfg.EventStore {
	case config.BackendMongo:
		log.Info("Connecting to MongoDB")
		mongoClient, err = persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoUser, cfg.MongoPassword)
		if err != nil {
			log.Fatal("Failed to connect to MongoDB", "error", err)
		}
		events, err = ledgerRepo.NewMongoEventRepository(ctx, persistence.GetDatabase(mongoClient, cfg.MongoDB))
		if err != nil {
			log.Fatal("Failed to set up event log", "error", err)
		}
		checks = append(checks, func(ctx context.Context) error {
			return mongoClient.Ping(ctx, nil)
		})
	default:
		events = ledgerRepo.NewMemoryEventRepository()
	}

	// Set up payouts
	var transferer usecase.Transferer
	if cfg.PayoutWebhookURL != "" {
		transferer = payout.NewWebhookTransferer(cfg.PayoutWebhookURL, cfg.PayoutWebhookToken, cfg.PayoutTimeout, log)
	} else {
		log.Warn("PAYOUT_WEBHOOK_URL not set, payouts are only logged")
		transferer = payout.NewLogTransferer(log)
	}

	// Set up metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	ledgerMetrics := metrics.NewMetrics(cfg.MetricsNamespace, registry)

	// Set up ledger
	ledger, err := usecase.NewLedger(usecase.LedgerConfig{
		Owner:                entity.ParseIdentity(cfg.OwnerIdentity),
		FirstAirline:         entity.ParseIdentity(cfg.FirstAirlineIdentity),
		FirstAirlineName:     cfg.FirstAirlineName,
		VoteThreshold:        cfg.VoteThreshold,
		MaxPoliciesPerFlight: cfg.MaxPoliciesPerFlight,
	}, uow, events, transferer, ledgerMetrics, log)
	if err != nil {
		log.Fatal("Failed to create ledger", "error", err)
	}
	if err := ledger.Bootstrap(ctx); err != nil {
		log.Fatal("Failed to bootstrap ledger", "error", err)
	}

	// Set up auth
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTokenLifetime)
	if err != nil {
		log.Fatal("Failed to create token service", "error", err)
	}
	authMiddleware := auth.NewMiddleware(tokens, log)

	// Set up HTTP server
	ledgerHandler := handler.NewLedgerHandler(ledger, log)
	health := func(r *http.Request) error {
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				return err
			}
		}
		return nil
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.NewRouter(ledgerHandler, authMiddleware, registry, health, log),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	cancel()

	// Disconnect from MongoDB
	if mongoClient != nil {
		if err := mongoClient.Disconnect(shutdownCtx); err != nil {
			log.Error("MongoDB disconnect error", "error", err)
		}
	}

	log.Info("FlightSurety Ledger stopped")
}
