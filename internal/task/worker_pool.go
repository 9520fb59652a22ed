package task

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-worker/internal/platform/logger"
)

// JobExecutor runs one job. *Executor satisfies it.
type JobExecutor interface {
	Execute(ctx context.Context, taskID uuid.UUID) Disposition
}

// WorkerPool manages a pool of worker goroutines that process jobs
// from a job queue. It handles graceful shutdown and worker lifecycle.
type WorkerPool struct {
	// queue provides read access to the jobs to be processed
	queue JobQueueReader

	executor JobExecutor

	// workerCount is the number of concurrent workers to start
	workerCount int

	// wg tracks active worker goroutines for clean shutdown
	wg sync.WaitGroup

	startOnce sync.Once

	logger *slog.Logger

	// onDone, if set, observes every finished job
	onDone func(job Job, d Disposition)
}

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// WorkerCount determines how many concurrent worker goroutines to start
	// If zero or negative, defaults to 1
	WorkerCount int
}

// DefaultWorkerPoolConfig returns a WorkerPoolConfig with reasonable defaults
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		WorkerCount: 2,
	}
}

// NewWorkerPool creates a new worker pool with the specified configuration
func NewWorkerPool(
	queue JobQueueReader,
	executor JobExecutor,
	config WorkerPoolConfig,
	logger *slog.Logger,
) *WorkerPool {
	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
	}

	return &WorkerPool{
		queue:       queue,
		executor:    executor,
		workerCount: workerCount,
		logger:      logger.With("component", "worker_pool"),
	}
}

// SetDoneHook registers a callback invoked after every job. Call before Start.
func (p *WorkerPool) SetDoneHook(fn func(job Job, d Disposition)) {
	p.onDone = fn
}

// Start launches the workers. Workers exit once the queue is closed and drained.
func (p *WorkerPool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		p.logger.Info("starting worker pool", "worker_count", p.workerCount)
		for i := 0; i < p.workerCount; i++ {
			p.wg.Add(1)
			go p.worker(ctx, i)
		}
	})
}

// Wait blocks until every worker has exited.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	log := p.logger.With("worker_id", id)
	log.Debug("starting worker")

	for job := range p.queue.Jobs() {
		jobLog := log.With("task_id", job.TaskID, "origin", job.Origin)
		d := p.executor.Execute(logger.WithLogger(ctx, jobLog), job.TaskID)
		p.queue.Done(job.TaskID)
		jobLog.Debug("job finished", "disposition", d)

		if p.onDone != nil {
			p.onDone(job, d)
		}
	}

	log.Debug("job channel closed, stopping worker")
}
