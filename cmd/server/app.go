package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/kanban-api/internal/api"
	"github.com/phrazzld/kanban-api/internal/config"
	"github.com/phrazzld/kanban-api/internal/events"
	"github.com/phrazzld/kanban-api/internal/platform/memory"
	"github.com/phrazzld/kanban-api/internal/platform/postgres"
	"github.com/phrazzld/kanban-api/internal/platform/websocket"
	"github.com/phrazzld/kanban-api/internal/scheduler"
	"github.com/phrazzld/kanban-api/internal/service"
	"github.com/phrazzld/kanban-api/internal/service/auth"
	"github.com/phrazzld/kanban-api/internal/store"
	"github.com/phrazzld/kanban-api/internal/worker"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is nil for the memory driver
	db  *sql.DB
	uow store.UnitOfWork

	services   api.Services
	jwtService auth.JWTService

	// Event system: services emit to the emitter, which queues deliveries to the hub.
	emitter  *events.InMemoryEventEmitter
	delivery *worker.AsyncEventHandler
	hub      *websocket.Hub
	stopHub  context.CancelFunc

	// scheduler is nil when the deadline sweep is disabled
	scheduler *scheduler.DeadlineScheduler
}

// newApplication creates a new application instance with all dependencies initialized.
// Background components are not started until Run.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	if err := app.openStore(ctx); err != nil {
		return nil, err
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		app.closeDB()
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	app.emitter = events.NewInMemoryEventEmitter(logger)
	app.hub = websocket.NewHub(logger)
	app.delivery = worker.NewAsyncEventHandler(app.hub, worker.AsyncConfig{
		Workers:   cfg.Events.Workers,
		QueueSize: cfg.Events.QueueSize,
	}, logger)
	app.emitter.RegisterHandler(app.delivery)

	if err := app.initServices(); err != nil {
		app.closeDB()
		return nil, err
	}

	if cfg.Scheduler.Enabled {
		app.scheduler, err = scheduler.NewDeadlineScheduler(cfg.Scheduler.DeadlineSweep, app.services.Tasks, logger)
		if err != nil {
			app.closeDB()
			return nil, fmt.Errorf("failed to create deadline scheduler: %w", err)
		}
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// openStore selects the persistence backend. Postgres is migrated to the
// latest schema before use.
func (app *application) openStore(ctx context.Context) error {
	switch app.config.Database.Driver {
	case "memory":
		app.uow = memory.NewStore(app.logger)
		app.logger.Warn("using in-memory store, board state is lost on restart")
		return nil

	case "postgres":
		db, err := postgres.Open(ctx, app.config.Database, app.logger)
		if err != nil {
			return err
		}
		if err := postgres.Migrate(ctx, db, "up", app.logger); err != nil {
			_ = db.Close()
			return err
		}
		app.db = db
		app.uow = postgres.NewUnitOfWork(db, app.logger)
		return nil

	default:
		return fmt.Errorf("unsupported database driver: %q", app.config.Database.Driver)
	}
}

func (app *application) initServices() error {
	var err error
	if app.services.Tasks, err = service.NewTaskService(app.uow, app.emitter, app.logger); err != nil {
		return fmt.Errorf("failed to create task service: %w", err)
	}
	if app.services.SubTasks, err = service.NewSubTaskService(app.uow, app.emitter, app.logger); err != nil {
		return fmt.Errorf("failed to create sub-task service: %w", err)
	}
	if app.services.Columns, err = service.NewColumnService(app.uow, app.emitter, app.logger); err != nil {
		return fmt.Errorf("failed to create column service: %w", err)
	}
	if app.services.Rows, err = service.NewRowService(app.uow, app.emitter, app.logger); err != nil {
		return fmt.Errorf("failed to create row service: %w", err)
	}
	if app.services.Users, err = service.NewUserService(app.uow, app.emitter, app.logger); err != nil {
		return fmt.Errorf("failed to create user service: %w", err)
	}
	return nil
}

// start launches the background components: the websocket hub, the event
// delivery pool and the deadline scheduler.
func (app *application) start() {
	hubCtx, cancel := context.WithCancel(context.Background())
	app.stopHub = cancel
	go app.hub.Run(hubCtx)

	app.delivery.Start()

	if app.scheduler != nil {
		app.scheduler.Start()
	}
}

// Run starts the background components and serves HTTP until ctx is cancelled.
func (app *application) Run(ctx context.Context) error {
	app.start()

	err := app.startHTTPServer(ctx, app.setupRouter())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
	defer cancel()
	app.cleanup(shutdownCtx)

	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources. Components
// that were never started are skipped.
func (app *application) cleanup(ctx context.Context) {
	if app.scheduler != nil {
		app.scheduler.Stop(ctx)
	}

	if app.stopHub != nil {
		// Flush queued events to the hub before it stops.
		_ = app.delivery.Shutdown(ctx)
		app.stopHub()
	}

	app.closeDB()
	app.logger.Info("application shutdown completed")
}

func (app *application) closeDB() {
	if app.db == nil {
		return
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database connection", "error", err)
	}
	app.db = nil
}
