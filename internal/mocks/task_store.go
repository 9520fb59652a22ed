package mocks

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-worker/internal/domain"
	"github.com/phrazzld/scry-worker/internal/store"
)

// MockTaskStore implements store.TaskStore in memory. Conditional status
// writes behave like the Postgres store: they fail with
// store.ErrTransitionConflict when the stored status differs.
type MockTaskStore struct {
	mu      sync.Mutex
	tasks   map[uuid.UUID]*domain.Task
	history map[uuid.UUID][]domain.TaskStatus

	CreateFn     func(ctx context.Context, task *domain.Task) error
	GetFn        func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	TransitionFn func(ctx context.Context, id uuid.UUID, from, to domain.TaskStatus) error
	CompleteFn   func(ctx context.Context, id uuid.UUID, result json.RawMessage) error
	FailFn       func(ctx context.Context, id uuid.UUID, errMsg string) error
	ListFn       func(ctx context.Context, taskType string, status domain.TaskStatus, limit int) ([]*domain.Task, error)
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// NewMockTaskStore creates an empty MockTaskStore.
func NewMockTaskStore(tasks ...*domain.Task) *MockTaskStore {
	s := &MockTaskStore{
		tasks:   make(map[uuid.UUID]*domain.Task),
		history: make(map[uuid.UUID][]domain.TaskStatus),
	}
	for _, t := range tasks {
		s.Put(t)
	}
	return s
}

// Put stores a copy of t, bypassing validation.
func (s *MockTaskStore) Put(t *domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tasks[t.ID] = &cp
	s.history[t.ID] = []domain.TaskStatus{t.Status}
}

// Snapshot returns a copy of the stored task, or nil.
func (s *MockTaskStore) Snapshot(id uuid.UUID) *domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil
	}
	cp := *t
	return &cp
}

// History returns every status the task has held, in order.
func (s *MockTaskStore) History(id uuid.UUID) []domain.TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.TaskStatus(nil), s.history[id]...)
}

// Create implements store.TaskStore.
func (s *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, task)
	}
	if err := task.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	_, exists := s.tasks[task.ID]
	s.mu.Unlock()
	if exists {
		return store.ErrDuplicate
	}
	s.Put(task)
	return nil
}

// Get implements store.TaskStore.
func (s *MockTaskStore) Get(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	if s.GetFn != nil {
		return s.GetFn(ctx, id)
	}
	t := s.Snapshot(id)
	if t == nil {
		return nil, store.ErrTaskNotFound
	}
	return t, nil
}

// TransitionStatus implements store.TaskStore.
func (s *MockTaskStore) TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.TaskStatus) error {
	if s.TransitionFn != nil {
		return s.TransitionFn(ctx, id, from, to)
	}
	if err := domain.CheckTransition(from, to); err != nil {
		return err
	}
	return s.update(id, from, to, func(t *domain.Task, now time.Time) {
		if to == domain.TaskStatusProcessing {
			t.StartedAt = &now
		}
	})
}

// Complete implements store.TaskStore.
func (s *MockTaskStore) Complete(ctx context.Context, id uuid.UUID, result json.RawMessage) error {
	if s.CompleteFn != nil {
		return s.CompleteFn(ctx, id, result)
	}
	return s.update(id, domain.TaskStatusProcessing, domain.TaskStatusCompleted, func(t *domain.Task, now time.Time) {
		t.Result = append(json.RawMessage(nil), result...)
		t.FinishedAt = &now
	})
}

// Fail implements store.TaskStore.
func (s *MockTaskStore) Fail(ctx context.Context, id uuid.UUID, errMsg string) error {
	if s.FailFn != nil {
		return s.FailFn(ctx, id, errMsg)
	}
	return s.update(id, domain.TaskStatusProcessing, domain.TaskStatusFailed, func(t *domain.Task, now time.Time) {
		t.Error = errMsg
		t.FinishedAt = &now
	})
}

func (s *MockTaskStore) update(id uuid.UUID, from, to domain.TaskStatus, apply func(*domain.Task, time.Time)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	if t.Status != from {
		return store.ErrTransitionConflict
	}

	now := time.Now().UTC()
	t.Status = to
	t.UpdatedAt = now
	apply(t, now)
	s.history[id] = append(s.history[id], to)
	return nil
}

// ListByStatus implements store.TaskStore.
func (s *MockTaskStore) ListByStatus(
	ctx context.Context,
	taskType string,
	status domain.TaskStatus,
	limit int,
) ([]*domain.Task, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx, taskType, status, limit)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Task
	for _, t := range s.tasks {
		if t.Type == taskType && t.Status == status {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// WithTx implements store.TaskStore. The mock has no transactions.
func (s *MockTaskStore) WithTx(*sql.Tx) store.TaskStore {
	return s
}
