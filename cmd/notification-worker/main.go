package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/di"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/notify"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/worker"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/config"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/database"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logCfg := &logger.Config{
		Level:       cfg.App.Environment,
		ServiceName: "notification-worker",
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Notification Worker...", zap.String("notifier", cfg.Notifier.Driver))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The standalone worker only makes sense against a shared database
	if cfg.Database.Driver != "postgres" {
		appLog.Fatal(fmt.Sprintf("notification worker requires the postgres driver, got %q", cfg.Database.Driver))
	}
	if err := cfg.ValidateDatabase(); err != nil {
		appLog.Fatal("Invalid database config", zap.Error(err))
	}

	dbCfg := database.FromConfig(cfg.Database, false)
	dbCfg.MaxConns = 10
	dbCfg.MinConns = 2
	db, err := database.NewPostgres(ctx, dbCfg)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to connect to database: %v", err))
	}
	defer db.Close()
	appLog.Info("Database connected")

	notifier, err := notify.New(cfg, appLog)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to create notifier: %v", err))
	}
	defer notifier.Close()

	store := di.NewStore(cfg, db)
	outboxWorker := worker.NewOutboxWorker(store, notifier, di.OutboxWorkerConfig(cfg))

	if err := outboxWorker.Start(ctx); err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to start outbox worker: %v", err))
	}

	// Periodically report worker stats
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := outboxWorker.GetStats()
				appLog.Info("Outbox worker stats",
					zap.Int64("published", stats.Published),
					zap.Int64("failed", stats.Failed),
					zap.Int64("cleaned", stats.Cleaned),
				)
			}
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down Notification Worker...")
	outboxWorker.Stop()
	cancel()

	appLog.Info("Notification Worker stopped")
}
