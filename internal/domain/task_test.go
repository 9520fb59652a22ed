package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	t.Parallel()

	t.Run("creates pending task", func(t *testing.T) {
		t.Parallel()

		task, err := NewTask(TaskTypeGenerateAudio, AudioPayload{TargetID: "post-42", Text: "Hello"})

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, task.ID)
		assert.Equal(t, TaskTypeGenerateAudio, task.Type)
		assert.Equal(t, TaskStatusPending, task.Status)
		assert.JSONEq(t, `{"targetId":"post-42","text":"Hello"}`, string(task.Payload))
		assert.Empty(t, task.Result)
		assert.Empty(t, task.Error)
		assert.False(t, task.CreatedAt.IsZero())
	})

	t.Run("rejects empty type", func(t *testing.T) {
		t.Parallel()

		task, err := NewTask("  ", map[string]string{"a": "b"})

		assert.ErrorIs(t, err, ErrEmptyTaskType)
		assert.Nil(t, task)
	})

	t.Run("rejects unmarshalable payload", func(t *testing.T) {
		t.Parallel()

		task, err := NewTask(TaskTypeGenerateAudio, make(chan int))

		assert.ErrorIs(t, err, ErrInvalidPayload)
		assert.Nil(t, task)
	})
}

func TestTaskValidate(t *testing.T) {
	t.Parallel()

	base := func() Task {
		return Task{
			ID:      uuid.New(),
			Type:    TaskTypeGenerateAudio,
			Status:  TaskStatusPending,
			Payload: json.RawMessage(`{"targetId":"p","text":"t"}`),
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Task)
		wantErr error
	}{
		{name: "valid pending", mutate: func(*Task) {}},
		{name: "nil id", mutate: func(tk *Task) { tk.ID = uuid.Nil }, wantErr: ErrEmptyTaskID},
		{name: "unknown status", mutate: func(tk *Task) { tk.Status = "queued" }, wantErr: ErrInvalidTaskStatus},
		{name: "invalid payload", mutate: func(tk *Task) { tk.Payload = json.RawMessage(`{`) }, wantErr: ErrInvalidPayload},
		{
			name: "completed with result",
			mutate: func(tk *Task) {
				tk.Status = TaskStatusCompleted
				tk.Result = json.RawMessage(`{"audioUrl":"u"}`)
			},
		},
		{
			name:    "completed without result",
			mutate:  func(tk *Task) { tk.Status = TaskStatusCompleted },
			wantErr: ErrValidation,
		},
		{
			name: "completed with result and error",
			mutate: func(tk *Task) {
				tk.Status = TaskStatusCompleted
				tk.Result = json.RawMessage(`{"audioUrl":"u"}`)
				tk.Error = "boom"
			},
			wantErr: ErrValidation,
		},
		{
			name: "failed with error",
			mutate: func(tk *Task) {
				tk.Status = TaskStatusFailed
				tk.Error = "boom"
			},
		},
		{
			name: "failed with result",
			mutate: func(tk *Task) {
				tk.Status = TaskStatusFailed
				tk.Error = "boom"
				tk.Result = json.RawMessage(`{"audioUrl":"u"}`)
			},
			wantErr: ErrValidation,
		},
		{
			name:    "processing with error",
			mutate:  func(tk *Task) { tk.Status = TaskStatusProcessing; tk.Error = "boom" },
			wantErr: ErrValidation,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			task := base()
			tc.mutate(&task)
			err := task.Validate()

			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tc.wantErr), "expected %v, got %v", tc.wantErr, err)
		})
	}
}

func TestTaskStatusTransitions(t *testing.T) {
	t.Parallel()

	all := []TaskStatus{TaskStatusPending, TaskStatusProcessing, TaskStatusCompleted, TaskStatusFailed}
	allowed := map[[2]TaskStatus]bool{
		{TaskStatusPending, TaskStatusProcessing}:   true,
		{TaskStatusProcessing, TaskStatusCompleted}: true,
		{TaskStatusProcessing, TaskStatusFailed}:    true,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]TaskStatus{from, to}]
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)

			err := CheckTransition(from, to)
			if want {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition)
			}
		}
	}

	assert.ErrorIs(t, CheckTransition("bogus", TaskStatusProcessing), ErrInvalidTaskStatus)
	assert.True(t, TaskStatusCompleted.IsTerminal())
	assert.True(t, TaskStatusFailed.IsTerminal())
	assert.False(t, TaskStatusProcessing.IsTerminal())
}

func TestTruncateError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", TruncateError("  short  ", 10))
	assert.Equal(t, "abcdefg...", TruncateError("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", TruncateError("abcdef", 2))
	assert.Equal(t, "héllo w...", TruncateError("héllo wörld and more", 10))

	long := strings.Repeat("x", DefaultErrorMaxLength+50)
	assert.Len(t, []rune(TruncateError(long, 0)), DefaultErrorMaxLength)
}

func TestDecodeAudioPayload(t *testing.T) {
	t.Parallel()

	p, err := DecodeAudioPayload(json.RawMessage(`{"targetId":"post-42","text":"Hello","voice":"Kore"}`))
	require.NoError(t, err)
	assert.Equal(t, "post-42", p.TargetID)
	assert.Equal(t, "Hello", p.Text)
	assert.Equal(t, "Kore", p.Voice)

	_, err = DecodeAudioPayload(json.RawMessage(`{"text":"Hello"}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = DecodeAudioPayload(json.RawMessage(`{"targetId":"post-42","text":"   "}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = DecodeAudioPayload(json.RawMessage(`[1,2]`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestTruncateText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Hello", TruncateText("Hello", 100))
	assert.Equal(t, "Hel", TruncateText("Hello", 3))
	assert.Equal(t, "He...", TruncateText("Hello world", 5))
	assert.Len(t, []rune(TruncateText(strings.Repeat("é", 150), 100)), 100)
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := NewValidationError("id", "has invalid format", ErrInvalidID)
	assert.Equal(t, "id has invalid format", err.Error())
	assert.ErrorIs(t, err, ErrInvalidID)
}
