package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wekeepgrowing/semo-credits/internal/config"
	"github.com/wekeepgrowing/semo-credits/internal/infrastructure/cache"
	"github.com/wekeepgrowing/semo-credits/internal/infrastructure/database"
	"github.com/wekeepgrowing/semo-credits/internal/infrastructure/provider"
	"github.com/wekeepgrowing/semo-credits/internal/usecase"
	"github.com/wekeepgrowing/semo-credits/pkg/messaging"
)

// App is the wired service graph shared by the server and the operator CLI
type App struct {
	DB       *gorm.DB
	Repos    *database.Repositories
	Redis    *messaging.Client
	Registry *provider.Registry
	Catalog  *usecase.Catalog

	Reconciler *usecase.ReconciliationService
	Purchases  *usecase.PurchaseService
	Webhooks   *usecase.WebhookService
	Sweep      *usecase.SweepService

	logger *zap.Logger
}

// New connects to the database, runs migrations and builds the services.
// Redis is optional; without it no events are published and polls are not throttled.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(db, logger); err != nil {
		_ = database.Close(db, logger)
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	catalog, err := usecase.LoadCatalog(cfg.Service.PackagesFile)
	if err != nil {
		_ = database.Close(db, logger)
		return nil, err
	}

	a := &App{
		DB:       db,
		Repos:    database.NewRepositories(db, logger),
		Registry: provider.NewRegistry(cfg, logger),
		Catalog:  catalog,
		logger:   logger,
	}

	var (
		publisher messaging.Publisher
		throttle  usecase.PollLimiter
	)
	if cfg.Redis.Addr != "" {
		client, err := messaging.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("Redis unavailable, running without events and poll throttle", zap.Error(err))
		} else {
			a.Redis = client
			publisher = client
			throttle = cache.NewPollThrottle(client.Redis(), cfg.Service.PollCooldown)
		}
	}

	a.Reconciler = usecase.NewReconciliationService(a.Repos.Transactor, a.Repos.Purchase, a.Repos.ActivityLog, publisher, logger)
	a.Purchases = usecase.NewPurchaseService(
		a.Repos.Purchase,
		a.Registry,
		a.Registry,
		a.Reconciler,
		throttle,
		catalog,
		usecase.PurchaseServiceConfig{Currency: cfg.Service.Currency, ClientURL: cfg.Service.ClientURL},
		logger,
	)
	a.Webhooks = usecase.NewWebhookService(a.Registry, a.Registry, a.Repos.Purchase, a.Reconciler, a.Repos.Webhook, logger)
	a.Sweep = usecase.NewSweepService(a.Repos.Transactor, a.Repos.Purchase, a.Registry, a.Reconciler, logger)

	return a, nil
}

// ReadinessChecks returns a ping per connected dependency
func (a *App) ReadinessChecks() map[string]func(ctx context.Context) error {
	checks := map[string]func(ctx context.Context) error{
		"database": func(ctx context.Context) error { return database.Ping(ctx, a.DB) },
	}
	if a.Redis != nil {
		checks["redis"] = a.Redis.Ping
	}
	return checks
}

// Close releases the database and Redis connections
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.logger.Error("Failed to close Redis connection", zap.Error(err))
		}
	}
	if err := database.Close(a.DB, a.logger); err != nil {
		a.logger.Error("Failed to close database connection", zap.Error(err))
	}
}
