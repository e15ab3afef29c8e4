// internal/app.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	router "fxwallet/internal/api"
	"fxwallet/internal/api/handler"
	"fxwallet/internal/cache"
	"fxwallet/internal/config"
	"fxwallet/internal/currency"
	"fxwallet/internal/exchange"
	"fxwallet/internal/metrics"
	"fxwallet/internal/notify"
	"fxwallet/internal/repository"
	"fxwallet/internal/repository/postgres"
	"fxwallet/internal/service"
	"fxwallet/internal/util"
	"fxwallet/pkg/db"
)

const notificationTimeout = 10 * time.Second

// Application holds all the initialized components of the application.
type Application struct {
	Config  *config.AppConfig
	Logger  *logrus.Logger
	DB      *sqlx.DB
	Redis   *redis.Client
	Metrics *metrics.Metrics

	// Repositories
	UserRepository    repository.UserRepository
	BalanceRepository repository.BalanceRepository

	Registry      *currency.Registry
	Notifications *notify.Dispatcher
	Hub           *notify.Hub

	// Services
	LedgerService service.LedgerService

	// HTTP API
	HTTPHandler http.Handler

	refresher *cron.Cron
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{Logger: util.GetLogger()}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger(cfg.Log)
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.")

	app.Metrics = metrics.New(prometheus.NewRegistry())

	// 3. Connect to Database
	database, err := db.NewPostgresDB(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	if err := postgres.Migrate(ctx, app.DB); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	app.Logger.Info("Database connection established.")

	// 4. Connect to Redis
	app.Redis, err = cache.NewRedisClient(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.Logger.WithField("addr", cfg.Redis.Addr).Info("Redis connection established.")

	// 5. Exchange provider and currency registry
	provider := exchange.NewClient(cfg.Provider, app.Metrics)
	app.Registry = currency.NewRegistry(provider, cache.NewStore(app.Redis), currency.Options{
		CacheKey: cfg.Registry.CacheKey,
		TTL:      cfg.Registry.TTL,
	}, app.Metrics, app.Logger)
	if err := app.Registry.WarmUp(ctx); err != nil {
		// Validation retries the load on first use.
		app.Logger.WithError(err).Warn("Currency registry warm-up failed")
	}
	if cfg.Registry.RefreshSchedule != "" {
		app.refresher, err = currency.StartRefresher(app.Registry, cfg.Registry.RefreshSchedule, app.Logger)
		if err != nil {
			return fmt.Errorf("failed to schedule currency refresh: %w", err)
		}
	}

	// 6. Notifications
	app.Hub = notify.NewHub(app.Metrics, app.Logger)
	sinks := []notify.Sink{app.Hub}
	if cfg.Email.Enabled() {
		sinks = append(sinks, notify.NewMailjetSink(cfg.Email))
	} else {
		app.Logger.Info("Email notifications disabled.")
	}
	app.Notifications = notify.NewDispatcher(notificationTimeout, app.Metrics, app.Logger, sinks...)

	// 7. Initialize Repositories
	app.UserRepository = postgres.NewUserRepository()
	app.BalanceRepository = postgres.NewBalanceRepository()

	// 8. Initialize Services
	app.LedgerService = service.NewLedgerService(service.Deps{
		DBBeginner:  app.DB,
		DBExecutor:  app.DB,
		UserRepo:    app.UserRepository,
		BalanceRepo: app.BalanceRepository,
		Registry:    app.Registry,
		Rates:       provider,
		Events:      app.Notifications,
		BeginTx:     db.BeginTx,
		CommitTx:    db.CommitTx,
		RollbackTx:  db.RollbackTx,
		Metrics:     app.Metrics,
		Logger:      app.Logger,
	})
	app.Logger.Info("Services initialized.")

	// 9. Initialize HTTP Handlers and Router
	app.HTTPHandler = router.NewRouter(router.RouterDeps{
		Ledger:          handler.NewLedgerHandler(app.LedgerService, app.Logger),
		Currency:        handler.NewCurrencyHandler(app.LedgerService, app.Logger),
		WS:              handler.NewWSHandler(app.Hub, app.Logger),
		JWTSecret:       cfg.Auth.JWTSecret,
		EvaluateLimiter: handler.NewUserLimiter(cfg.Limits.EvaluateInterval),
		Metrics:         app.Metrics,
		Logger:          app.Logger,
	})
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.refresher != nil {
		<-app.refresher.Stop().Done()
	}
	if app.Notifications != nil {
		done := make(chan struct{})
		go func() {
			app.Notifications.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			app.Logger.Warn("Pending notifications abandoned")
		}
	}
	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			app.Logger.WithError(err).Error("Failed to close redis connection")
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.WithError(err).Error("Failed to close database connection")
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
