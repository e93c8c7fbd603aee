package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/di"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/handler"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/notify"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/migrations"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/config"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/database"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/logger"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/middleware"
	pkgredis "github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/redis"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(&logger.Config{
		Level:       cfg.App.Environment,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting booking engine",
		zap.String("version", cfg.App.Version),
		zap.String("database_driver", cfg.Database.Driver),
		zap.String("notifier_driver", cfg.Notifier.Driver),
		zap.String("timezone", cfg.Engine.Timezone),
	)

	ctx := context.Background()

	// Initialize tracing
	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		appLog.Warn("Tracing disabled", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}()

	// Initialize database connection
	var db *database.PostgresDB
	if cfg.Database.Driver == "postgres" {
		if err := cfg.ValidateDatabase(); err != nil {
			appLog.Fatal("Invalid database config", zap.Error(err))
		}
		db, err = database.NewPostgres(ctx, database.FromConfig(cfg.Database, cfg.OTel.Enabled))
		if err != nil {
			appLog.Fatal("Database connection failed", zap.Error(err))
		}
		defer db.Close()
		appLog.Info("Database connected")

		if cfg.Database.AutoMigrate {
			applied, err := db.Migrate(ctx, migrations.FS)
			if err != nil {
				appLog.Fatal("Database migration failed", zap.Error(err))
			}
			appLog.Info("Database schema up to date", zap.Strings("applied", applied))
		}
	} else {
		appLog.Warn("Using in-memory store, data is lost on restart",
			zap.Strings("seed_musicians", cfg.Database.SeedMusicians),
		)
	}

	// Redis backs the pricing cache and idempotency keys; both are optional
	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(ctx, pkgredis.FromConfig(cfg.Redis))
	if err != nil {
		appLog.Warn("Redis unavailable, running without pricing cache and idempotency", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
		appLog.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	notifier, err := notify.New(cfg, appLog)
	if err != nil {
		appLog.Fatal("Failed to create notifier", zap.Error(err))
	}
	defer notifier.Close()

	container := di.NewContainer(&di.ContainerConfig{
		Config:   cfg,
		DB:       db,
		Redis:    redisClient,
		Notifier: notifier,
		Logger:   appLog,
	})

	if db != nil && len(cfg.Database.SeedMusicians) > 0 {
		if err := di.SeedMusicians(ctx, container.Store, cfg.Database.SeedMusicians); err != nil {
			appLog.Fatal("Failed to seed musicians", zap.Error(err))
		}
		appLog.Info("Musicians seeded", zap.Strings("ids", cfg.Database.SeedMusicians))
	}

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	if cfg.Outbox.Embedded {
		if err := container.OutboxWorker.Start(workerCtx); err != nil {
			appLog.Fatal("Failed to start outbox worker", zap.Error(err))
		}
	}

	// Setup Gin
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID(appLog))
	router.Use(telemetry.TracingMiddleware(cfg.OTel.ServiceName))
	router.Use(middleware.Logger(appLog))

	// Health check endpoints
	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Idempotency for write routes; clients opt in with X-Idempotency-Key
	var writes []gin.HandlerFunc
	if redisClient != nil {
		idempotencyConfig := middleware.DefaultIdempotencyConfig(redisClient.Client())
		idempotencyConfig.SkipPaths = []string{"/health", "/ready", "/metrics"}
		idempotencyConfig.RequireKey = false
		writes = append(writes, middleware.IdempotencyMiddleware(idempotencyConfig))
	}

	v1 := router.Group("/api/v1")
	handler.RegisterRoutes(v1, container.Handlers, middleware.UserID(), writes...)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		appLog.Info("Booking engine listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Server forced to shutdown", zap.Error(err))
	}
	if cfg.Outbox.Embedded {
		container.OutboxWorker.Stop()
	}

	appLog.Info("Server exited gracefully")
}
