package task

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-worker/internal/domain"
	"github.com/phrazzld/scry-worker/internal/notify"
)

// Job asks for one execution of a stored task.
type Job struct {
	TaskID uuid.UUID
	// Origin records what produced the job ("event" or "backfill") for logs.
	Origin string
}

// Job origins
const (
	OriginEvent    = "event"
	OriginBackfill = "backfill"
)

// JobQueueReader provides read-only access to the job channel
// allowing workers to consume jobs without the ability to enqueue.
type JobQueueReader interface {
	// Jobs returns a read-only channel for consuming jobs.
	Jobs() <-chan Job

	// Done marks a job's task as no longer queued or running.
	Done(taskID uuid.UUID)
}

// JobQueueWriter provides write access to the job queue.
type JobQueueWriter interface {
	// Enqueue adds a job to the queue.
	// Returns an error if the queue is full, closed, or already holds the task.
	Enqueue(job Job) error

	// Close closes the queue, preventing further submission.
	Close()
}

// Outcome is what a Handler produced for a task that succeeded.
type Outcome struct {
	// Result is stored on the task record as-is.
	Result json.RawMessage

	// Notification, when non-nil, is dispatched after the task completes.
	Notification *notify.Request
}

// Handler performs the type-specific work of a task: generation and
// propagation of the result to the target entity. An error fails the task.
type Handler interface {
	Handle(ctx context.Context, task *domain.Task) (*Outcome, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, task *domain.Task) (*Outcome, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, task *domain.Task) (*Outcome, error) {
	return f(ctx, task)
}

// Notifier sends completion notices without blocking the caller.
type Notifier interface {
	DispatchAsync(ctx context.Context, req notify.Request)
}
