package di

import (
	"context"
	"fmt"
	"time"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/domain"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/handler"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/notify"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/repository"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/service"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/worker"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/config"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/database"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/logger"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/redis"
)

// Container holds all dependencies for the booking engine
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client

	// Repositories
	Store        repository.Store
	PricingCache repository.PricingCache

	// Delivery
	Notifier     notify.Notifier
	OutboxWorker *worker.OutboxWorker

	// Services
	AvailabilityService service.AvailabilityService
	PricingService      service.PricingService
	RequestService      service.RequestService
	OfferService        service.OfferService
	EventService        service.EventService
	CancellationService service.CancellationService

	// Handlers
	HealthHandler *handler.HealthHandler
	Handlers      *handler.Handlers
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	Config   *config.Config
	DB       *database.PostgresDB
	Redis    *redis.Client
	Notifier notify.Notifier
	Logger   *logger.Logger

	// Store overrides the store derived from DB, mainly for tests
	Store repository.Store
	// Clock overrides time.Now for the engine
	Clock func() time.Time
}

// EngineConfig maps application settings onto the service engine config
func EngineConfig(cfg *config.Config, log *logger.Logger, clock func() time.Time) *service.EngineConfig {
	return &service.EngineConfig{
		Location:     cfg.Location(),
		TravelBuffer: cfg.Engine.TravelBuffer,
		Lifecycle: domain.LifecycleRules{
			StartWindowBefore:         cfg.Engine.StartWindowBefore,
			StartWindowAfter:          cfg.Engine.StartWindowAfter,
			MinDurationBeforeComplete: cfg.Engine.MinDurationBeforeDone,
		},
		EnforceHourBounds: cfg.Engine.EnforceHourBounds,
		DefaultCurrency:   cfg.Engine.DefaultCurrency,
		Clock:             clock,
		Logger:            log,
	}
}

// OutboxWorkerConfig maps application settings onto the worker config
func OutboxWorkerConfig(cfg *config.Config) *worker.OutboxWorkerConfig {
	return &worker.OutboxWorkerConfig{
		PollInterval:    cfg.Outbox.PollInterval,
		BatchSize:       cfg.Outbox.BatchSize,
		RetryInterval:   cfg.Outbox.RetryInterval,
		CleanupInterval: cfg.Outbox.CleanupInterval,
		RetentionPeriod: cfg.Outbox.RetentionPeriod,
	}
}

// NewStore picks the store for the configured driver. The memory driver is
// seeded with the configured musicians since it has no user directory.
func NewStore(cfg *config.Config, db *database.PostgresDB) repository.Store {
	if cfg.Database.Driver != "memory" && db != nil {
		return repository.NewPostgresStore(db.Pool())
	}

	store := repository.NewMemoryStore()
	_ = SeedMusicians(context.Background(), store, cfg.Database.SeedMusicians)
	return store
}

// SeedMusicians upserts each id as an active musician. Deployments that sync
// the musicians table from the user directory leave the list empty.
func SeedMusicians(ctx context.Context, store repository.Store, ids []string) error {
	for _, id := range ids {
		m := &domain.Musician{ID: id, Name: id, Status: domain.MusicianStatusActive}
		if err := store.Musicians().Upsert(ctx, m); err != nil {
			return fmt.Errorf("failed to seed musician %s: %w", id, err)
		}
	}
	return nil
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	log := cfg.Logger
	if log == nil {
		log = logger.Get()
	}

	c := &Container{
		DB:       cfg.DB,
		Redis:    cfg.Redis,
		Store:    cfg.Store,
		Notifier: cfg.Notifier,
	}

	// Initialize repositories
	if c.Store == nil {
		c.Store = NewStore(cfg.Config, c.DB)
	}
	if c.Redis != nil {
		c.PricingCache = repository.NewRedisPricingCache(c.Redis.Client(), cfg.Config.Engine.PricingCacheTTL)
	}
	if c.Notifier == nil {
		c.Notifier = notify.NewLogNotifier(log)
	}

	// Initialize services
	engine := EngineConfig(cfg.Config, log, cfg.Clock)
	c.AvailabilityService = service.NewAvailabilityService(c.Store, engine)
	c.PricingService = service.NewPricingService(c.Store, c.PricingCache, engine)
	c.RequestService = service.NewRequestService(c.Store, c.PricingService, engine)
	c.OfferService = service.NewOfferService(c.Store, c.PricingService, engine)
	c.EventService = service.NewEventService(c.Store, engine)
	c.CancellationService = service.NewCancellationService(c.Store, engine)

	c.OutboxWorker = worker.NewOutboxWorker(c.Store, c.Notifier, OutboxWorkerConfig(cfg.Config))

	// Initialize handlers
	components := map[string]handler.HealthChecker{}
	if c.DB != nil {
		components["database"] = c.DB
	}
	if c.Redis != nil {
		components["redis"] = c.Redis
	}
	c.HealthHandler = handler.NewHealthHandler(components)

	c.Handlers = &handler.Handlers{
		Availability: handler.NewAvailabilityHandler(c.AvailabilityService),
		Pricing:      handler.NewPricingHandler(c.PricingService),
		Requests:     handler.NewRequestHandler(c.RequestService, c.EventService, c.CancellationService),
		Offers:       handler.NewOfferHandler(c.OfferService),
	}

	return c
}
