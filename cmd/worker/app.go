package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/phrazzld/scry-worker/internal/api"
	"github.com/phrazzld/scry-worker/internal/config"
	"github.com/phrazzld/scry-worker/internal/domain"
	"github.com/phrazzld/scry-worker/internal/generation"
	"github.com/phrazzld/scry-worker/internal/notify"
	"github.com/phrazzld/scry-worker/internal/platform/fcm"
	"github.com/phrazzld/scry-worker/internal/platform/gemini"
	"github.com/phrazzld/scry-worker/internal/platform/postgres"
	"github.com/phrazzld/scry-worker/internal/platform/storage"
	"github.com/phrazzld/scry-worker/internal/platform/tracing"
	"github.com/phrazzld/scry-worker/internal/service/auth"
	"github.com/phrazzld/scry-worker/internal/task"
	"golang.org/x/sync/errgroup"
)

// readHeaderTimeout bounds slow clients on the operator API.
const readHeaderTimeout = 10 * time.Second

// application holds the long-lived dependencies of serve.
type application struct {
	config *config.Config
	logger *slog.Logger

	db           *sql.DB
	listenerPool *pgxpool.Pool
	tracing      tracing.ShutdownFunc

	runner     *task.Runner
	dispatcher *notify.Dispatcher
	server     *http.Server
}

// newApplication connects to every dependency. On error, whatever was
// already opened is closed.
func newApplication(ctx context.Context, cfg *config.Config, log *slog.Logger, migrate bool) (app *application, err error) {
	app = &application{config: cfg, logger: log}
	defer func() {
		if err != nil {
			app.close(context.WithoutCancel(ctx))
			app = nil
		}
	}()

	if app.tracing, err = tracing.Setup(ctx, cfg.Tracing); err != nil {
		return app, err
	}

	if app.db, err = postgres.Open(ctx, cfg.Database, log); err != nil {
		return app, err
	}
	if migrate {
		if err = postgres.Migrate(ctx, app.db, postgres.MigrateUp, log); err != nil {
			return app, err
		}
	}
	if app.listenerPool, err = postgres.NewListenerPool(ctx, cfg.Database); err != nil {
		return app, err
	}

	tasks := postgres.NewPostgresTaskStore(app.db)
	posts := postgres.NewPostgresPostStore(app.db)
	tokens := postgres.NewPostgresTokenStore(app.db)
	conversations := postgres.NewPostgresConversationStore(app.db)

	synth, err := gemini.NewSynthesizer(ctx, log, cfg.LLM)
	if err != nil {
		return app, fmt.Errorf("failed to create speech synthesizer: %w", err)
	}
	artifacts, err := storage.New(cfg.Storage, log)
	if err != nil {
		return app, fmt.Errorf("failed to create artifact store: %w", err)
	}
	pipeline, err := generation.NewSpeechPipeline(synth, artifacts, log)
	if err != nil {
		return app, err
	}

	// A nil *Dispatcher must not reach the executor as a non-nil interface.
	var notifier task.Notifier
	handlerCfg := task.AudioHandlerConfig{}
	if cfg.Notify.Enabled {
		gateway, gwErr := fcm.NewGateway(ctx, cfg.Notify, log)
		if gwErr != nil {
			return app, fmt.Errorf("failed to create push gateway: %w", gwErr)
		}
		app.dispatcher = notify.NewDispatcher(tokens, gateway, notify.DispatcherConfig{
			BodyMaxLength:      cfg.Notify.BodyMaxLength,
			PruneInvalidTokens: cfg.Notify.PruneInvalidTokens,
		}, log)
		notifier = app.dispatcher
		handlerCfg = task.AudioHandlerConfig{
			NotifyTitle: cfg.Notify.Title,
			LinkBaseURL: cfg.Notify.LinkBaseURL,
		}
	} else {
		log.Info("push notifications disabled")
	}

	executor := task.NewExecutor(tasks, notifier, task.ExecutorConfig{
		ErrorMaxLength: cfg.Task.ErrorMaxLength,
	}, log)
	executor.Register(domain.TaskTypeGenerateAudio, task.NewAudioHandler(pipeline, posts, handlerCfg, log))
	if cfg.Task.Type != domain.TaskTypeGenerateAudio {
		log.Warn("watched task type has no handler; its tasks will fail",
			"task_type", cfg.Task.Type)
	}

	listener := postgres.NewListener(app.listenerPool, log)
	app.runner = task.NewRunner(task.WatcherDeps{Source: listener, Store: tasks}, executor, task.RunnerConfig{
		TaskType:          cfg.Task.Type,
		WorkerCount:       cfg.Task.WorkerCount,
		QueueSize:         cfg.Task.QueueSize,
		BackfillInterval:  time.Duration(cfg.Task.BackfillIntervalSeconds) * time.Second,
		BackfillBatchSize: cfg.Task.BackfillBatchSize,
	}, log)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return app, err
	}
	app.server = &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewRouter(api.RouterDeps{
			Tasks:         tasks,
			Tokens:        tokens,
			Conversations: conversations,
			JWT:           jwtService,
			DB:            app.db,
			Logger:        log,
		}),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return app, nil
}

// run blocks until ctx is cancelled or a component fails, then shuts the
// API down and drains the runner.
func (a *application) run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.runner.Run(gctx)
	})

	g.Go(func() error {
		a.logger.Info("starting operator API", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("operator API failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down operator API")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), a.shutdownTimeout())
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (a *application) shutdownTimeout() time.Duration {
	return time.Duration(a.config.Server.ShutdownTimeoutSeconds) * time.Second
}

// close waits for background dispatches, flushes traces, and releases
// connections. It tolerates a partially built application.
func (a *application) close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, a.shutdownTimeout())
	defer cancel()

	if a.dispatcher != nil {
		if err := a.dispatcher.Wait(ctx); err != nil {
			a.logger.Warn("gave up waiting for in-flight notifications", "error", err)
		}
	}
	if a.listenerPool != nil {
		a.listenerPool.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("failed to close database", "error", err)
		}
	}
	if a.tracing != nil {
		if err := a.tracing(ctx); err != nil {
			a.logger.Error("failed to flush traces", "error", err)
		}
	}
	a.logger.Info("shutdown complete")
}
