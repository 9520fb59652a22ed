package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-worker/internal/domain"
	"github.com/phrazzld/scry-worker/internal/platform/logger"
	"github.com/phrazzld/scry-worker/internal/store"
)

const taskColumns = `id, type, status, payload, result, error_message,
	created_at, updated_at, started_at, finished_at`

// PostgresTaskStore implements store.TaskStore using PostgreSQL.
// Every status write is conditional on the current status, so concurrent
// executors racing on the same task are resolved by the database.
type PostgresTaskStore struct {
	db store.DBTX
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

// NewPostgresTaskStore creates a new PostgresTaskStore.
func NewPostgresTaskStore(db store.DBTX) *PostgresTaskStore {
	return &PostgresTaskStore{db: db}
}

// WithTx returns a new task store instance that uses the provided transaction.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{db: tx}
}

// Create inserts a new task record.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContext(ctx)

	if err := task.Validate(); err != nil {
		log.Warn("invalid task", "task_id", task.ID, "error", err)
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, type, status, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		task.ID, task.Type, task.Status, []byte(task.Payload), task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task", "task_id", task.ID, "task_type", task.Type, "error", err)
		return MapError(err)
	}

	log.Debug("task created", "task_id", task.ID, "task_type", task.Type)
	return nil
}

// Get retrieves a task by its ID.
func (s *PostgresTaskStore) Get(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContext(ctx).Error("failed to get task", "task_id", id, "error", err)
		return nil, MapError(err)
	}
	return task, nil
}

// TransitionStatus moves a task between non-terminal statuses when the
// stored status still equals from.
func (s *PostgresTaskStore) TransitionStatus(
	ctx context.Context,
	id uuid.UUID,
	from, to domain.TaskStatus,
) error {
	if err := domain.CheckTransition(from, to); err != nil {
		return err
	}
	if to.IsTerminal() {
		return fmt.Errorf("%w: use Complete or Fail to enter %s", domain.ErrInvalidTransition, to)
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET status = $3,
		    updated_at = $4,
		    started_at = CASE WHEN $3 = 'processing' THEN $4 ELSE started_at END
		WHERE id = $1 AND status = $2`,
		id, from, to, now,
	)
	if err != nil {
		logger.FromContext(ctx).Error("failed to transition task",
			"task_id", id, "from", from, "to", to, "error", err)
		return MapError(err)
	}
	return s.checkConditionalWrite(ctx, id, result)
}

// Complete writes the completed status and result in one conditional update.
func (s *PostgresTaskStore) Complete(ctx context.Context, id uuid.UUID, result json.RawMessage) error {
	if len(result) == 0 || !json.Valid(result) {
		return fmt.Errorf("%w: result must be a JSON document", store.ErrInvalidEntity)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET status = 'completed', result = $2, error_message = NULL,
		    updated_at = $3, finished_at = $3
		WHERE id = $1 AND status = 'processing'`,
		id, []byte(result), now,
	)
	if err != nil {
		logger.FromContext(ctx).Error("failed to complete task", "task_id", id, "error", err)
		return MapError(err)
	}
	return s.checkConditionalWrite(ctx, id, res)
}

// Fail writes the failed status and failure summary in one conditional update.
func (s *PostgresTaskStore) Fail(ctx context.Context, id uuid.UUID, errMsg string) error {
	if errMsg == "" {
		return fmt.Errorf("%w: failure summary cannot be empty", store.ErrInvalidEntity)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET status = 'failed', error_message = $2, result = NULL,
		    updated_at = $3, finished_at = $3
		WHERE id = $1 AND status = 'processing'`,
		id, errMsg, now,
	)
	if err != nil {
		logger.FromContext(ctx).Error("failed to fail task", "task_id", id, "error", err)
		return MapError(err)
	}
	return s.checkConditionalWrite(ctx, id, res)
}

// ListByStatus returns up to limit tasks of a type and status, oldest first.
func (s *PostgresTaskStore) ListByStatus(
	ctx context.Context,
	taskType string,
	status domain.TaskStatus,
	limit int,
) ([]*domain.Task, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE type = $1 AND status = $2
		ORDER BY created_at ASC
		LIMIT $3`,
		taskType, status, limit,
	)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list tasks",
			"task_type", taskType, "status", status, "error", err)
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, MapError(err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return tasks, nil
}

// checkConditionalWrite turns a zero-row conditional update into
// ErrTaskNotFound or ErrTransitionConflict.
func (s *PostgresTaskStore) checkConditionalWrite(ctx context.Context, id uuid.UUID, result sql.Result) error {
	err := CheckRowsAffected(result, store.ErrTransitionConflict)
	if !errors.Is(err, store.ErrTransitionConflict) {
		return err
	}

	var exists bool
	if qerr := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, id).
		Scan(&exists); qerr != nil {
		return MapError(qerr)
	}
	if !exists {
		return store.ErrTaskNotFound
	}
	return store.ErrTransitionConflict
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task       domain.Task
		status     string
		payload    []byte
		result     []byte
		errMsg     sql.NullString
		startedAt  sql.NullTime
		finishedAt sql.NullTime
	)
	if err := row.Scan(
		&task.ID, &task.Type, &status, &payload, &result, &errMsg,
		&task.CreatedAt, &task.UpdatedAt, &startedAt, &finishedAt,
	); err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.Payload = json.RawMessage(payload)
	if len(result) > 0 {
		task.Result = json.RawMessage(result)
	}
	task.Error = errMsg.String
	if startedAt.Valid {
		t := startedAt.Time
		task.StartedAt = &t
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		task.FinishedAt = &t
	}
	return &task, nil
}
