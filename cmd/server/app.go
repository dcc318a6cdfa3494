package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskman-api/internal/bulk"
	"github.com/phrazzld/taskman-api/internal/config"
	"github.com/phrazzld/taskman-api/internal/jobs"
	"github.com/phrazzld/taskman-api/internal/platform/memory"
	"github.com/phrazzld/taskman-api/internal/platform/redisstore"
	"github.com/phrazzld/taskman-api/internal/platform/sqlstore"
	"github.com/phrazzld/taskman-api/internal/query"
	"github.com/phrazzld/taskman-api/internal/redact"
	"github.com/phrazzld/taskman-api/internal/service"
	"github.com/phrazzld/taskman-api/internal/service/auth"
	"github.com/phrazzld/taskman-api/internal/store"
	"github.com/redis/go-redis/v9"
)

const redisPingTimeout = 3 * time.Second

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is nil for the memory driver; redis is nil unless revocations
	// live in Redis.
	db    *sql.DB
	redis *redis.Client

	userStore       store.UserStore
	taskStore       store.TaskStore
	revocationStore store.RevocationStore

	jwtService  auth.JWTService
	userService service.UserService
	taskService service.TaskService

	scheduler *jobs.Scheduler
}

// newApplication opens the configured backends and builds every service.
// Resources acquired before a failure are released.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *application, err error) {
	app := &application{
		config: cfg,
		logger: logger,
	}
	defer func() {
		if err != nil {
			app.cleanup()
		}
	}()

	if err := app.setupStores(ctx); err != nil {
		return nil, err
	}

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	app.userService, err = service.NewUserService(service.UserServiceDeps{
		Users:         app.userStore,
		Revocations:   app.revocationStore,
		Tokens:        app.jwtService,
		Passwords:     auth.NewBcrypt(cfg.Auth.BcryptCost),
		TokenLifetime: cfg.Auth.TokenLifetime(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create user service: %w", err)
	}

	app.taskService, err = service.NewTaskService(app.taskStore, service.TaskServiceConfig{
		Query: query.EngineConfig{
			DefaultLimit: cfg.Tasks.DefaultLimit,
			MaxLimit:     cfg.Tasks.MaxLimit,
		},
		Bulk: bulk.Config{
			MaxIDs:      cfg.Tasks.BulkMaxIDs,
			Concurrency: cfg.Tasks.BulkConcurrency,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// setupStores builds the task, user and revocation stores for the configured
// database driver and revocation backend.
func (app *application) setupStores(ctx context.Context) error {
	cfg := app.config

	switch cfg.Database.Driver {
	case "memory":
		app.userStore = memory.NewUserStore(time.Now)
		app.taskStore = memory.NewTaskStore(time.Now)
		app.logger.Warn("using in-memory storage; data is lost on shutdown")
	default:
		db, dialect, err := sqlstore.Open(ctx, cfg.Database, app.logger)
		if err != nil {
			return err
		}
		app.db = db

		if cfg.Database.AutoMigrate {
			if _, err := sqlstore.Migrate(ctx, db, dialect, sqlstore.MigrateUp, app.logger); err != nil {
				return err
			}
		}

		app.userStore = sqlstore.NewSQLUserStore(db, dialect, app.logger)
		app.taskStore = sqlstore.NewSQLTaskStore(db, dialect, app.logger)
		if cfg.Revocation.Backend == "sql" {
			app.revocationStore = sqlstore.NewSQLRevocationStore(db, dialect, app.logger)
		}
	}

	switch cfg.Revocation.Backend {
	case "redis":
		app.redis = redisstore.NewClient(cfg.Redis)
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := app.redis.Ping(pingCtx).Err(); err != nil {
			app.logger.Warn("redis is not reachable yet; revocation checks fail until it is",
				slog.String("addr", cfg.Redis.Addr),
				slog.String("error", redact.Error(err)))
		}
		app.revocationStore = redisstore.NewRevocationStore(app.redis, cfg.Redis, app.logger)
	case "memory":
		app.revocationStore = memory.NewRevocationStore()
	}

	if app.revocationStore == nil {
		return fmt.Errorf("revocation backend %q is not available with database driver %q",
			cfg.Revocation.Backend, cfg.Database.Driver)
	}

	app.logger.Info("stores initialized",
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("revocation_backend", cfg.Revocation.Backend))
	return nil
}

// startScheduler registers the revocation purge and starts the scheduler.
func (app *application) startScheduler() error {
	app.scheduler = jobs.NewScheduler(app.logger)
	purge := jobs.NewPurgeRevokedJob(app.revocationStore, nil)
	if err := app.scheduler.Add(app.config.Revocation.PurgeSchedule, purge); err != nil {
		return err
	}
	app.scheduler.Start()
	return nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()

	if err := app.startScheduler(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.scheduler != nil {
		ctx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
		if err := app.scheduler.Stop(ctx); err != nil {
			app.logger.Error("error stopping scheduler", slog.String("error", err.Error()))
		}
		cancel()
		app.scheduler = nil
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", slog.String("error", err.Error()))
		}
		app.redis = nil
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
		app.db = nil
	}

	app.logger.Info("application shutdown completed")
}
