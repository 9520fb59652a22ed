package task

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-worker/internal/domain"
	"github.com/phrazzld/scry-worker/internal/events"
	"github.com/phrazzld/scry-worker/internal/redact"
	"github.com/phrazzld/scry-worker/internal/store"
)

// TasksCollection is the collection name carried by task change events.
const TasksCollection = "tasks"

// ErrSourceEnded is returned by Watcher.Run when the event source closes its
// stream while the watcher's context is still live.
var ErrSourceEnded = errors.New("event source ended")

// WatcherConfig holds configuration for the change watcher.
type WatcherConfig struct {
	// TaskType is the discriminator a task must carry to be picked up.
	TaskType string

	// BackfillInterval is the period of the pending-task sweep that catches
	// events missed while the watcher was down or the queue was full.
	// Zero disables the periodic sweep; the startup sweep always runs.
	BackfillInterval time.Duration

	// BackfillBatchSize bounds the number of tasks read per sweep.
	BackfillBatchSize int
}

// Watcher bridges task-creation events to the job queue. It never mutates a
// task record.
type Watcher struct {
	source events.Source
	store  store.TaskStore
	queue  JobQueueWriter
	config WatcherConfig
	logger *slog.Logger
}

// NewWatcher creates a Watcher.
func NewWatcher(
	source events.Source,
	taskStore store.TaskStore,
	queue JobQueueWriter,
	config WatcherConfig,
	logger *slog.Logger,
) *Watcher {
	if config.BackfillBatchSize <= 0 {
		config.BackfillBatchSize = 50
	}
	return &Watcher{
		source: source,
		store:  taskStore,
		queue:  queue,
		config: config,
		logger: logger.With("component", "change_watcher", "task_type", config.TaskType),
	}
}

// taskSnapshot is the subset of a task document the predicate looks at.
type taskSnapshot struct {
	Type   string            `json:"type"`
	Status domain.TaskStatus `json:"status"`
}

// Matches reports whether ev announces a task of the configured type that is
// still pending.
func (w *Watcher) Matches(ev events.ChangeEvent) bool {
	if ev.Collection != TasksCollection {
		return false
	}
	var snap taskSnapshot
	if err := ev.UnmarshalSnapshot(&snap); err != nil {
		return false
	}
	return snap.Type == w.config.TaskType && snap.Status == domain.TaskStatusPending
}

// Run consumes events until ctx is cancelled. It returns nil on cancellation
// and ErrSourceEnded if the source stops on its own.
func (w *Watcher) Run(ctx context.Context) error {
	stream, err := w.source.Subscribe(ctx)
	if err != nil {
		return err
	}
	w.logger.Info("watching for new tasks")

	// Subscribe first so nothing created during the sweep is missed.
	w.Backfill(ctx)

	var tick <-chan time.Time
	if w.config.BackfillInterval > 0 {
		ticker := time.NewTicker(w.config.BackfillInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return nil

		case ev, ok := <-stream:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrSourceEnded
			}
			w.handleEvent(ev)

		case <-tick:
			w.Backfill(ctx)
		}
	}
}

func (w *Watcher) handleEvent(ev events.ChangeEvent) {
	if !w.Matches(ev) {
		return
	}

	id, err := uuid.Parse(ev.DocumentID)
	if err != nil {
		w.logger.Warn("ignoring task event with malformed id", "document_id", ev.DocumentID)
		return
	}
	w.enqueue(Job{TaskID: id, Origin: OriginEvent})
}

// Backfill enqueues pending tasks of the configured type, oldest first.
func (w *Watcher) Backfill(ctx context.Context) {
	tasks, err := w.store.ListByStatus(ctx, w.config.TaskType, domain.TaskStatusPending, w.config.BackfillBatchSize)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("failed to list pending tasks", "error", redact.Error(err))
		}
		return
	}
	if len(tasks) > 0 {
		w.logger.Info("backfilling pending tasks", "count", len(tasks))
	}
	for _, t := range tasks {
		w.enqueue(Job{TaskID: t.ID, Origin: OriginBackfill})
	}
}

// enqueue drops jobs the queue cannot take. The task stays pending, so the
// next sweep offers it again.
func (w *Watcher) enqueue(job Job) {
	err := w.queue.Enqueue(job)
	switch {
	case err == nil:
	case errors.Is(err, ErrAlreadyQueued):
		w.logger.Debug("task already queued", "task_id", job.TaskID, "origin", job.Origin)
	case errors.Is(err, ErrQueueFull):
		w.logger.Warn("job queue full, deferring task to next sweep", "task_id", job.TaskID)
	default:
		w.logger.Warn("failed to enqueue task", "task_id", job.TaskID, "error", err)
	}
}
