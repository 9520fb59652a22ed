package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a task record
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// TaskTypeGenerateAudio is the discriminator for tasks that turn a post's text into audio.
const TaskTypeGenerateAudio = "generateAudio"

// DefaultErrorMaxLength bounds the failure summary stored on a failed task.
const DefaultErrorMaxLength = 500

// Validation errors for Task
var (
	ErrEmptyTaskID   = errors.New("task ID cannot be empty")
	ErrEmptyTaskType = errors.New("task type cannot be empty")
)

// Task is one unit of deferred work and its lifecycle state.
// The JSON form is the wire shape shared with producers.
type Task struct {
	ID         uuid.UUID       `json:"id"`
	Type       string          `json:"type"`
	Status     TaskStatus      `json:"status"`
	Payload    json.RawMessage `json:"payload"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
}

// NewTask creates a pending task of the given type. The payload is marshalled
// once and never changes afterwards.
func NewTask(taskType string, payload any) (*Task, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	now := time.Now().UTC()
	task := &Task{
		ID:        uuid.New(),
		Type:      taskType,
		Status:    TaskStatusPending,
		Payload:   raw,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

// Validate checks the task's shape, including the result/error exclusivity rules.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if strings.TrimSpace(t.Type) == "" {
		return ErrEmptyTaskType
	}
	if !t.Status.IsValid() {
		return ErrInvalidTaskStatus
	}
	if len(t.Payload) == 0 || !json.Valid(t.Payload) {
		return fmt.Errorf("%w: payload must be a JSON document", ErrInvalidPayload)
	}

	hasResult := len(t.Result) > 0 && string(t.Result) != "null"
	hasError := t.Error != ""

	switch t.Status {
	case TaskStatusCompleted:
		if !hasResult || hasError {
			return fmt.Errorf("%w: completed task needs a result and no error", ErrValidation)
		}
	case TaskStatusFailed:
		if hasResult || !hasError {
			return fmt.Errorf("%w: failed task needs an error and no result", ErrValidation)
		}
	default:
		if hasResult || hasError {
			return fmt.Errorf("%w: %s task cannot carry a result or error", ErrValidation, t.Status)
		}
	}
	return nil
}

// IsValid reports whether the status is one of the known values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusProcessing, TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed out of the status.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// CanTransitionTo reports whether moving from s to next is a forward step
// of pending -> processing -> {completed | failed}.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	switch s {
	case TaskStatusPending:
		return next == TaskStatusProcessing
	case TaskStatusProcessing:
		return next == TaskStatusCompleted || next == TaskStatusFailed
	default:
		return false
	}
}

// CheckTransition returns ErrInvalidTransition when from -> to is not allowed.
func CheckTransition(from, to TaskStatus) error {
	if !from.IsValid() || !to.IsValid() {
		return ErrInvalidTaskStatus
	}
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// TruncateError bounds a failure summary to maxLen runes, marking the cut with an ellipsis.
// A non-positive maxLen falls back to DefaultErrorMaxLength.
func TruncateError(msg string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultErrorMaxLength
	}
	return TruncateText(strings.TrimSpace(msg), maxLen)
}

// TruncateText bounds s to maxLen runes. When it cuts and maxLen leaves room,
// the last three runes become "...".
func TruncateText(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
