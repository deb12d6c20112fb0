package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/docgen-api/internal/callback"
	"github.com/phrazzld/docgen-api/internal/config"
	"github.com/phrazzld/docgen-api/internal/events"
	"github.com/phrazzld/docgen-api/internal/generation"
	"github.com/phrazzld/docgen-api/internal/platform/postgres"
	"github.com/phrazzld/docgen-api/internal/platform/redis"
	"github.com/phrazzld/docgen-api/internal/service"
	"github.com/phrazzld/docgen-api/internal/store"
	"github.com/phrazzld/docgen-api/internal/task"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// Connections
	db    *sql.DB
	redis goredis.UniversalClient

	// Stores
	userStore store.UserStore
	logStore  store.LogStore
	taskStore task.TaskStore

	// Intake side
	generationService service.GenerationService

	// Worker side
	emitter    *events.InMemoryEventEmitter
	dispatcher *callback.Dispatcher
	executor   *task.Executor
	poller     *task.Poller
}

// connectApplication opens the database and Redis connections, waits until
// both answer, and builds the application on top of them.
func connectApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := postgres.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	rdb, err := redis.NewClient(cfg.Redis.URL)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	closeAll := func() {
		_ = rdb.Close()
		_ = db.Close()
	}

	if err := waitForDependency(ctx, "postgres", defaultRetry, logger,
		func(ctx context.Context) error { return postgres.Ping(ctx, db) },
	); err != nil {
		closeAll()
		return nil, err
	}
	if err := waitForDependency(ctx, "redis", defaultRetry, logger,
		func(ctx context.Context) error { return redis.Ping(ctx, rdb) },
	); err != nil {
		closeAll()
		return nil, err
	}

	app, err := newApplication(cfg, logger, db, rdb)
	if err != nil {
		closeAll()
		return nil, err
	}
	return app, nil
}

// newApplication wires every component on top of established connections.
func newApplication(
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
	rdb goredis.UniversalClient,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
		redis:  rdb,
	}

	// Stores
	app.userStore = postgres.NewPostgresUserStore(db, logger)
	app.logStore = postgres.NewPostgresLogStore(db, logger)
	tasks := redis.NewTaskStore(rdb, cfg.Redis.KeyPrefix, logger)
	app.taskStore = tasks

	renderer, err := generation.NewFileRenderer(cfg.Renderer, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	app.generationService, err = service.NewGenerationService(app.userStore, tasks, app.logStore, renderer, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation service: %w", err)
	}

	// Outcome events flow from the executor to the callback dispatcher
	app.dispatcher = callback.NewDispatcher(cfg.Callback, nil, logger)
	app.emitter = events.NewInMemoryEventEmitter(logger)
	app.emitter.RegisterHandler(app.dispatcher)

	app.executor, err = task.NewExecutor(
		renderer,
		app.taskStore,
		app.logStore,
		app.emitter,
		task.ExecutorConfig{ResultTTL: cfg.Worker.ResultTTL},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create executor: %w", err)
	}

	app.poller, err = task.NewPoller(app.taskStore, app.executor, task.PollerConfigFrom(cfg.Worker), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create poller: %w", err)
	}

	return app, nil
}

// run starts the parts selected by mode and blocks until ctx is cancelled or
// one of them fails. In-flight executions and callback deliveries are drained
// before it returns.
func (app *application) run(ctx context.Context, mode processMode) error {
	g, gctx := errgroup.WithContext(ctx)

	if mode.api {
		router := app.setupRouter()
		g.Go(func() error {
			return app.serveHTTP(gctx, router)
		})
	}
	if mode.worker {
		g.Go(func() error {
			app.logger.Info("starting task poller",
				"poll_interval", app.config.Worker.PollInterval,
				"max_in_flight", app.config.Worker.MaxInFlight)
			return app.poller.Run(gctx)
		})
	}

	err := g.Wait()

	// Run returns only after its executions finished; their callbacks may still be in flight
	app.poller.Wait()
	app.dispatcher.Wait()

	app.logger.Info("shutdown completed")
	return err
}

// cleanup releases the connections. It is safe to call once after run.
func (app *application) cleanup() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("failed to close redis connection", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
	}
}
