package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-worker/internal/domain"
)

// TaskStore defines the persistence operations for task records.
// Implementations own the conditional status writes the executor relies on.
type TaskStore interface {
	// Create inserts a new task record.
	// Returns validation errors if the task is invalid.
	Create(ctx context.Context, task *domain.Task) error

	// Get retrieves a task by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	Get(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// TransitionStatus moves a task from one non-terminal status to another,
	// but only if the stored status still equals from.
	// Returns ErrTransitionConflict if another writer changed the status first
	// and ErrTaskNotFound if the task does not exist.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.TaskStatus) error

	// Complete writes the completed status and the result document in a single update.
	// Only a processing task can complete.
	Complete(ctx context.Context, id uuid.UUID, result json.RawMessage) error

	// Fail writes the failed status and the failure summary in a single update.
	// Only a processing task can fail.
	Fail(ctx context.Context, id uuid.UUID, errMsg string) error

	// ListByStatus returns up to limit tasks of the given type and status,
	// oldest first.
	ListByStatus(
		ctx context.Context,
		taskType string,
		status domain.TaskStatus,
		limit int,
	) ([]*domain.Task, error)

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TaskStore
}
