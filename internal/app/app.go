package app

import (
	"context"

	"example.com/backstage/services/inventory/config"
	"example.com/backstage/services/inventory/internal/auth"
	"example.com/backstage/services/inventory/internal/cache"
	"example.com/backstage/services/inventory/internal/database"
	"example.com/backstage/services/inventory/internal/mailer"
	"example.com/backstage/services/inventory/internal/messaging"
	"example.com/backstage/services/inventory/internal/metrics"
	"example.com/backstage/services/inventory/internal/ratelimit"
	"example.com/backstage/services/inventory/internal/repository"
	"example.com/backstage/services/inventory/internal/service"
	"example.com/backstage/services/inventory/internal/worker"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DBConnectAttempts is how often startup retries an unreachable database
const DBConnectAttempts = 5

// App is built once at startup and handed to the server, the worker and the CLI
type App struct {
	Config    *config.Config
	Log       *logrus.Logger
	Metrics   *metrics.Collector
	DB        database.DB
	Repo      repository.Repository
	Cache     cache.RedisClient // nil when Redis is disabled
	Limiter   ratelimit.Limiter
	Publisher messaging.Publisher
	Mailer    mailer.Mailer
	Tokens    *auth.TokenManager
	Service   service.Service
}

// New connects to every backing service and wires the service layer
func New(cfg *config.Config, log *logrus.Logger) (*App, error) {
	a := &App{
		Config:  cfg,
		Log:     log,
		Metrics: metrics.NewCollector(),
	}

	db, err := database.ConnectWithRetry(cfg.Database, a.Metrics, DBConnectAttempts, func(attempt int, err error) {
		log.WithError(err).WithFields(logrus.Fields{
			"retry_attempt": attempt,
			"max_retries":   DBConnectAttempts,
		}).Error("Failed to connect to database, retrying...")
	})
	if err != nil {
		return nil, err
	}
	a.DB = db
	a.Repo = repository.NewRepository(db)
	log.Info("Successfully connected to database")

	if cfg.Redis.Enabled {
		a.Cache, err = cache.NewRedisClient(cfg.Redis)
		if err != nil {
			a.Close()
			return nil, err
		}
		log.Info("Successfully connected to Redis")
	}

	switch cfg.RateLimit.Backend {
	case "redis":
		if a.Cache == nil {
			a.Close()
			return nil, errors.New("redis rate limiter requires redis.enabled")
		}
		a.Limiter = ratelimit.NewRedisLimiter(a.Cache.Cmdable())
	default:
		a.Limiter = ratelimit.NewMemoryLimiter()
	}

	a.Publisher, err = messaging.NewPublisher(cfg.ServiceBus, "inventory-service", log)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Mailer = mailer.New(cfg.Mail, log)
	a.Tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.ResetTokenTTL)

	a.Service, err = service.NewService(service.ServiceConfig{
		Repository:     a.Repo,
		Cache:          a.Cache,
		Publisher:      a.Publisher,
		Mailer:         a.Mailer,
		Tokens:         a.Tokens,
		Metrics:        a.Metrics,
		Logger:         log,
		DeletionPolicy: service.DeletionPolicy(cfg.Catalog.DeletionPolicy),
		ProductTTL:     cfg.Catalog.ProductCacheTTL,
		PasswordMaxAge: cfg.Auth.PasswordMaxAge,
		BcryptCost:     cfg.Auth.BcryptCost,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// MemoryLimiter returns the in-process limiter when that backend is in use
func (a *App) MemoryLimiter() (*ratelimit.MemoryLimiter, bool) {
	l, ok := a.Limiter.(*ratelimit.MemoryLimiter)
	return l, ok
}

// StartLimiterPurge keeps purging idle keys from the limiter handed to the
// HTTP routes until ctx is cancelled. It reports false for the redis backend,
// whose keys expire on their own.
func (a *App) StartLimiterPurge(ctx context.Context) bool {
	limiter, ok := a.MemoryLimiter()
	if !ok {
		return false
	}

	jobs := worker.NewJobs(a.Service, limiter, a.Metrics, a.Log)
	go func() {
		if err := worker.RunLimiterPurge(ctx, a.Config.Worker.LimiterPurgeInterval, jobs); err != nil {
			a.Log.WithError(err).Error("Rate limiter purge stopped")
		}
	}()
	return true
}

// Close releases every connection that was opened
func (a *App) Close() {
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			a.Log.WithError(err).Error("Error closing event publisher")
		}
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Log.WithError(err).Error("Error closing Redis connection")
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Log.WithError(err).Error("Error closing database connection")
		}
	}
}
