package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-worker/internal/events"
	"github.com/phrazzld/scry-worker/internal/store"
)

// RunnerConfig holds configuration for the task runner
type RunnerConfig struct {
	// TaskType is the discriminator the watcher picks up.
	TaskType string

	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory job queue
	QueueSize int

	// BackfillInterval defines how often pending tasks are swept into the queue
	BackfillInterval time.Duration

	// BackfillBatchSize bounds each sweep
	BackfillBatchSize int
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount:       2,
		QueueSize:         100,
		BackfillInterval:  time.Minute,
		BackfillBatchSize: 50,
	}
}

// WatcherDeps are the collaborators the runner's watcher reads from.
type WatcherDeps struct {
	Source events.Source
	Store  store.TaskStore
}

// Runner wires a Watcher, a JobQueue and a WorkerPool around an executor.
type Runner struct {
	watcher *Watcher
	queue   *JobQueue
	pool    *WorkerPool
	logger  *slog.Logger
}

// NewRunner creates a Runner reading events from deps.
func NewRunner(deps WatcherDeps, executor JobExecutor, config RunnerConfig, logger *slog.Logger) *Runner {
	queue := NewJobQueue(config.QueueSize, logger)
	watcher := NewWatcher(deps.Source, deps.Store, queue, WatcherConfig{
		TaskType:          config.TaskType,
		BackfillInterval:  config.BackfillInterval,
		BackfillBatchSize: config.BackfillBatchSize,
	}, logger)
	pool := NewWorkerPool(queue, executor, WorkerPoolConfig{WorkerCount: config.WorkerCount}, logger)

	return &Runner{
		watcher: watcher,
		queue:   queue,
		pool:    pool,
		logger:  logger.With("component", "task_runner"),
	}
}

// Pool exposes the worker pool, e.g. to install a done hook before Run.
func (r *Runner) Pool() *WorkerPool {
	return r.pool
}

// Run starts the workers and watches for tasks until ctx is cancelled. On
// return the queue has been closed and every buffered job has finished.
func (r *Runner) Run(ctx context.Context) error {
	r.pool.Start(context.WithoutCancel(ctx))

	err := r.watcher.Run(ctx)

	r.queue.Close()
	r.logger.Info("draining job queue", "pending_jobs", r.queue.Len())
	r.pool.Wait()
	return err
}
