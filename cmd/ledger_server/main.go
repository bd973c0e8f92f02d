package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/remote-account-ledger/internal/config"
	"github.com/remote-account-ledger/internal/data/postgres"
	"github.com/remote-account-ledger/internal/dispatch"
	"github.com/remote-account-ledger/internal/engine"
	"github.com/remote-account-ledger/internal/logger"
	"github.com/remote-account-ledger/internal/outbox_poller"
	"github.com/remote-account-ledger/internal/platform/messaging/producers"
	"github.com/remote-account-ledger/internal/platform/persistence"
	"github.com/remote-account-ledger/internal/session"
	"github.com/remote-account-ledger/internal/transport"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("ledger_server")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Ledger Server",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize database with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer for the audit stream
	auditProducer, err := producers.NewAuditRecordProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize audit Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	accountRepo := postgres.NewAccountRepository(log, postgresDB.Pool())
	logRepo := postgres.NewTransactionLogRepository(log, postgresDB.Pool())
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB.Pool())

	// Initialize the ledger engine and session manager
	ledgerEngine := engine.NewEngine(log, postgresDB.Pool(), accountRepo, logRepo, outboxRepo, cfg.Engine.LockTimeout)
	sessions := session.NewManager(log, cfg.Session.TTL)

	// Initialize the command dispatcher and TCP transport
	dispatcher := dispatch.NewDispatcher(log, ledgerEngine, sessions, cfg.Engine.RetryBackoff)
	server := transport.NewServer(log, &cfg.Server, dispatcher, sessions)

	// Initialize the outbox poller feeding the audit stream
	poller := outbox_poller.NewPoller(&cfg.Outbox, outboxRepo, auditProducer, log)

	// Create error channel for service errors
	errChan := make(chan error, 1)

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start TCP server in a goroutine
	go func() {
		log.Info("Starting TCP server", "addr", cfg.Server.ListenAddr)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("TCP server error: %w", err)
		}
	}()

	// Start outbox poller in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Outbox Poller",
			"interval", cfg.Outbox.PollingInterval.String(),
			"batch_size", cfg.Outbox.BatchSize,
		)
		poller.Start(appCtx)
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context, stopping the poller
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Stop accepting connections and drain in-flight requests
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	// Wait for the poller to finish its current batch
	wg.Wait()

	if err = auditProducer.Close(); err != nil {
		log.Error("Error closing audit Kafka producer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Final status
	if serverErr != nil {
		log.Error("Ledger Server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Ledger Server shutdown completed with errors")
	} else {
		log.Info("Ledger Server shutdown completed successfully")
	}
}
