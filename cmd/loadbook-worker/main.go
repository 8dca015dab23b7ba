package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"loadbook/internal/amqp"
	"loadbook/internal/cache"
	"loadbook/internal/config"
	"loadbook/internal/ledger"
	"loadbook/internal/ledger/google"
	"loadbook/internal/ledger/memory"
	"loadbook/internal/log"
	"loadbook/internal/storage"
	"loadbook/internal/worker"
)

func main() {
	// Load .env for local development; absent in production is fine.
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: log.ComponentWorker})
	log.SetDefault(logger)

	logger.Info("Starting loadbook-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the ledger worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var appender ledger.Appender
	switch cfg.LedgerBackend {
	case "sheets":
		cli, err := google.NewClient(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets ledger", "error", err)
			os.Exit(1)
		}
		appender = cli
		logger.Info("Google Sheets ledger initialized",
			"spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	case "memory":
		appender = memory.New()
		logger.Info("In-memory ledger initialized")
	default:
		logger.Error("Ledger backend disabled - set LEDGER_BACKEND to memory or sheets to run the worker")
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(repo, appender)

	cacheManager := cache.NewManager()
	cacheManager.Register(syncWorker.Mirrored())
	cacheManager.StartCleanup(cfg.SyncInterval)
	defer cacheManager.Stop()

	// Recover anything that accumulated while the worker was down before
	// consuming live messages.
	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSync(ctx, cfg.SyncBatchSize); err != nil {
		logger.Error("Startup sync failed", "error", err)
		// Keep going; live consumption still works.
	}

	go func() {
		handler := func(msg *amqp.ExpenseSyncMessage) error {
			return syncWorker.HandleSyncMessage(ctx, msg)
		}
		if err := amqpClient.ConsumeExpenseSync(ctx, handler); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
			}
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	logger.Info("Shutting down worker...")
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
