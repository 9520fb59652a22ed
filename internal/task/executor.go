package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-worker/internal/domain"
	"github.com/phrazzld/scry-worker/internal/platform/logger"
	"github.com/phrazzld/scry-worker/internal/redact"
	"github.com/phrazzld/scry-worker/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Disposition describes how one Execute call ended.
type Disposition string

// Possible dispositions
const (
	// DispositionSkipped means the task was not pending, or another
	// invocation claimed it first. Nothing was written.
	DispositionSkipped Disposition = "skipped"
	// DispositionAborted means the task could not be read or claimed because
	// of a store error. Its status is unchanged.
	DispositionAborted Disposition = "aborted"
	// DispositionCompleted means the task reached completed.
	DispositionCompleted Disposition = "completed"
	// DispositionFailed means the task reached failed.
	DispositionFailed Disposition = "failed"
	// DispositionStuck means the terminal write failed and the task was left
	// in processing.
	DispositionStuck Disposition = "stuck"
)

// ErrNoHandler is recorded on tasks whose type has no registered handler.
var ErrNoHandler = errors.New("no handler registered for task type")

// ExecutorConfig holds the executor's tunables.
type ExecutorConfig struct {
	// ErrorMaxLength bounds the failure summary stored on the task.
	ErrorMaxLength int
}

// Executor advances a task through pending -> processing -> completed|failed.
// It never returns an error; every outcome is written to the task or logged.
type Executor struct {
	store    store.TaskStore
	handlers map[string]Handler
	notifier Notifier
	config   ExecutorConfig
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewExecutor creates an Executor. notifier may be nil, in which case
// completion notices are dropped.
func NewExecutor(taskStore store.TaskStore, notifier Notifier, config ExecutorConfig, logger *slog.Logger) *Executor {
	if config.ErrorMaxLength <= 0 {
		config.ErrorMaxLength = domain.DefaultErrorMaxLength
	}
	return &Executor{
		store:    taskStore,
		handlers: make(map[string]Handler),
		notifier: notifier,
		config:   config,
		tracer:   otel.Tracer("github.com/phrazzld/scry-worker/internal/task"),
		logger:   logger.With("component", "task_executor"),
	}
}

// Register binds a handler to a task type, replacing any previous one.
// Register is not safe to call once execution has started.
func (e *Executor) Register(taskType string, h Handler) {
	e.handlers[taskType] = h
}

// Execute runs one invocation of the state machine for the task.
//
// The invocation is detached from ctx cancellation so that shutdown never
// interrupts a task between its processing and terminal writes; ctx values
// (logger, trace) are kept.
func (e *Executor) Execute(ctx context.Context, taskID uuid.UUID) Disposition {
	ctx = context.WithoutCancel(ctx)
	ctx, span := e.tracer.Start(ctx, "task.execute",
		trace.WithAttributes(attribute.String("task.id", taskID.String())))
	defer span.End()

	log := logger.FromContextOrDefault(ctx, e.logger).With("task_id", taskID)

	disposition := e.execute(logger.WithLogger(ctx, log), taskID, span)
	span.SetAttributes(attribute.String("task.disposition", string(disposition)))
	return disposition
}

func (e *Executor) execute(ctx context.Context, taskID uuid.UUID, span trace.Span) Disposition {
	log := logger.FromContext(ctx)

	// Guard: only a pending task is ours to run.
	t, err := e.store.Get(ctx, taskID)
	if err != nil {
		log.Error("failed to read task", "error", redact.Error(err))
		span.SetStatus(codes.Error, "read failed")
		return DispositionAborted
	}
	span.SetAttributes(attribute.String("task.type", t.Type))
	log = log.With("task_type", t.Type)

	if t.Status != domain.TaskStatusPending {
		log.Debug("task is not pending, skipping", "status", t.Status)
		return DispositionSkipped
	}

	// Claim: conditional write, so only one concurrent invocation proceeds.
	if err := e.store.TransitionStatus(ctx, taskID, domain.TaskStatusPending, domain.TaskStatusProcessing); err != nil {
		if errors.Is(err, store.ErrTransitionConflict) {
			log.Info("task was claimed by another invocation, skipping")
			return DispositionSkipped
		}
		log.Error("failed to mark task processing", "error", redact.Error(err))
		span.SetStatus(codes.Error, "claim failed")
		return DispositionAborted
	}
	log.Info("processing task")

	outcome, runErr := e.runHandler(ctx, t)
	if runErr != nil {
		span.RecordError(runErr)
		span.SetStatus(codes.Error, "handler failed")

		summary := domain.TruncateError(redact.Error(runErr), e.config.ErrorMaxLength)
		if err := e.store.Fail(ctx, taskID, summary); err != nil {
			log.Error("failed to mark task failed, task left processing",
				"error", redact.Error(err),
				"task_error", summary)
			return DispositionStuck
		}
		log.Warn("task failed", "task_error", summary)
		return DispositionFailed
	}

	if err := e.store.Complete(ctx, taskID, outcome.Result); err != nil {
		log.Error("failed to mark task completed, task left processing", "error", redact.Error(err))
		span.SetStatus(codes.Error, "terminal write failed")
		return DispositionStuck
	}
	log.Info("task completed")

	if outcome.Notification != nil {
		if e.notifier == nil {
			log.Debug("no notifier configured, completion notice dropped")
		} else {
			e.notifier.DispatchAsync(ctx, *outcome.Notification)
		}
	}
	return DispositionCompleted
}

// runHandler resolves and invokes the handler, converting panics into errors.
func (e *Executor) runHandler(ctx context.Context, t *domain.Task) (outcome *Outcome, err error) {
	h, ok := e.handlers[t.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoHandler, t.Type)
	}

	defer func() {
		if p := recover(); p != nil {
			logger.FromContext(ctx).Error("task handler panicked",
				"panic", p,
				"stack", string(debug.Stack()))
			outcome, err = nil, fmt.Errorf("task handler panicked: %v", p)
		}
	}()

	outcome, err = h.Handle(ctx, t)
	if err == nil && (outcome == nil || len(outcome.Result) == 0) {
		return nil, errors.New("task handler returned no result")
	}
	return outcome, err
}
