package store_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/phrazzld/scry-worker/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestEntityNotFoundErrors(t *testing.T) {
	t.Parallel()

	notFound := []error{
		store.ErrTaskNotFound,
		store.ErrPostNotFound,
		store.ErrConversationNotFound,
		store.ErrTokenNotFound,
	}

	for _, err := range notFound {
		t.Run(err.Error(), func(t *testing.T) {
			t.Parallel()

			assert.True(t, store.IsNotFoundError(err))
			assert.True(t, store.IsNotFoundError(fmt.Errorf("lookup: %w", err)))
			assert.False(t, store.IsDuplicateError(err))
		})
	}

	assert.False(t, store.IsNotFoundError(nil))
	assert.False(t, store.IsNotFoundError(store.ErrTransitionConflict))
	assert.True(t, errors.Is(store.ErrPostNotFound, store.ErrNotFound))
	assert.False(t, errors.Is(store.ErrPostNotFound, store.ErrTaskNotFound))
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	t.Run("with wrapped error", func(t *testing.T) {
		t.Parallel()

		err := store.NewStoreError("task", "update", "status write rejected", store.ErrTransitionConflict)

		assert.Equal(t,
			"update operation on task failed: status write rejected: task status changed concurrently",
			err.Error())
		assert.ErrorIs(t, err, store.ErrTransitionConflict)
	})

	t.Run("without wrapped error", func(t *testing.T) {
		t.Parallel()

		err := store.NewStoreError("post", "update", "no rows", nil)

		assert.Equal(t, "update operation on post failed: no rows", err.Error())
		assert.Nil(t, errors.Unwrap(err))
	})

	t.Run("errors.As", func(t *testing.T) {
		t.Parallel()

		wrapped := fmt.Errorf("outer: %w", store.NewStoreError("token", "delete", "x", store.ErrNotFound))

		var se *store.StoreError
		assert.True(t, errors.As(wrapped, &se))
		assert.Equal(t, "token", se.Entity)
		assert.True(t, store.IsNotFoundError(wrapped))
	})
}
