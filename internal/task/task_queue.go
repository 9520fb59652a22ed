package task

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Common errors returned by the JobQueue
var (
	ErrQueueClosed   = errors.New("job queue is closed")
	ErrQueueFull     = errors.New("job queue is full")
	ErrAlreadyQueued = errors.New("task is already queued or running")
)

// JobQueue is a bounded job buffer that satisfies both JobQueueReader and
// JobQueueWriter. A task is accepted again only after Done is called for it,
// which keeps duplicate change events from piling up behind one another.
type JobQueue struct {
	mu       sync.Mutex
	jobs     chan Job
	inflight map[uuid.UUID]struct{}
	closed   bool
	logger   *slog.Logger
}

// NewJobQueue creates a new job queue with the specified buffer size.
func NewJobQueue(size int, logger *slog.Logger) *JobQueue {
	if size <= 0 {
		size = 1
	}
	return &JobQueue{
		jobs:     make(chan Job, size),
		inflight: make(map[uuid.UUID]struct{}),
		logger:   logger.With("component", "job_queue"),
	}
}

// Enqueue adds a job to the queue without blocking.
func (q *JobQueue) Enqueue(job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	if _, ok := q.inflight[job.TaskID]; ok {
		return ErrAlreadyQueued
	}

	select {
	case q.jobs <- job:
		q.inflight[job.TaskID] = struct{}{}
		q.logger.Debug("job enqueued",
			"task_id", job.TaskID,
			"origin", job.Origin,
			"queue_len", len(q.jobs),
			"queue_cap", cap(q.jobs))
		return nil
	default:
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(q.jobs))
	}
}

// Done releases the task so it may be enqueued again.
func (q *JobQueue) Done(taskID uuid.UUID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inflight, taskID)
}

// Len reports the number of jobs waiting in the buffer.
func (q *JobQueue) Len() int {
	return len(q.jobs)
}

// Close closes the queue. Jobs already buffered remain readable.
func (q *JobQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.jobs)
		q.logger.Info("job queue closed")
	}
}

// Jobs returns a read-only channel for consuming jobs.
func (q *JobQueue) Jobs() <-chan Job {
	return q.jobs
}
