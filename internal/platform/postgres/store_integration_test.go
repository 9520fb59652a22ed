//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-worker/internal/domain"
	"github.com/phrazzld/scry-worker/internal/platform/postgres"
	"github.com/phrazzld/scry-worker/internal/store"
	"github.com/phrazzld/scry-worker/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTask(t *testing.T, targetID string) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(domain.TaskTypeGenerateAudio, domain.AudioPayload{TargetID: targetID, Text: "Hello"})
	require.NoError(t, err)
	return task
}

func TestTaskStoreLifecycle(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		tasks := postgres.NewPostgresTaskStore(tx)

		task := newTestTask(t, "post-42")
		require.NoError(t, tasks.Create(ctx, task))
		assert.ErrorIs(t, tasks.Create(ctx, task), store.ErrDuplicate)

		got, err := tasks.Get(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusPending, got.Status)
		assert.JSONEq(t, string(task.Payload), string(got.Payload))
		assert.Nil(t, got.StartedAt)

		require.NoError(t, tasks.TransitionStatus(ctx, task.ID, domain.TaskStatusPending, domain.TaskStatusProcessing))
		assert.ErrorIs(t,
			tasks.TransitionStatus(ctx, task.ID, domain.TaskStatusPending, domain.TaskStatusProcessing),
			store.ErrTransitionConflict)

		result := json.RawMessage(`{"audioUrl":"https://cdn.example.com/audio/post-42.wav"}`)
		require.NoError(t, tasks.Complete(ctx, task.ID, result))
		assert.ErrorIs(t, tasks.Fail(ctx, task.ID, "late failure"), store.ErrTransitionConflict)

		got, err = tasks.Get(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusCompleted, got.Status)
		assert.JSONEq(t, string(result), string(got.Result))
		assert.Empty(t, got.Error)
		assert.NotNil(t, got.StartedAt)
		assert.NotNil(t, got.FinishedAt)
		assert.NoError(t, got.Validate())
	})
}

func TestTaskStoreFailAndList(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		tasks := postgres.NewPostgresTaskStore(tx)

		first := newTestTask(t, "post-1")
		second := newTestTask(t, "post-2")
		second.CreatedAt = first.CreatedAt.Add(1)
		require.NoError(t, tasks.Create(ctx, first))
		require.NoError(t, tasks.Create(ctx, second))

		pending, err := tasks.ListByStatus(ctx, domain.TaskTypeGenerateAudio, domain.TaskStatusPending, 10)
		require.NoError(t, err)
		ids := make([]uuid.UUID, 0, len(pending))
		for _, p := range pending {
			ids = append(ids, p.ID)
		}
		assert.Contains(t, ids, first.ID)
		assert.Contains(t, ids, second.ID)

		require.NoError(t, tasks.TransitionStatus(ctx, first.ID, domain.TaskStatusPending, domain.TaskStatusProcessing))
		require.NoError(t, tasks.Fail(ctx, first.ID, "generation failed: quota exceeded"))

		got, err := tasks.Get(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusFailed, got.Status)
		assert.Equal(t, "generation failed: quota exceeded", got.Error)
		assert.Empty(t, got.Result)

		_, err = tasks.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
		assert.ErrorIs(t,
			tasks.TransitionStatus(ctx, uuid.New(), domain.TaskStatusPending, domain.TaskStatusProcessing),
			store.ErrTaskNotFound)
	})
}

func TestPostStore(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		posts := postgres.NewPostgresPostStore(tx)

		require.NoError(t, posts.EnsureExists(ctx, "post-42", "First"))
		require.NoError(t, posts.EnsureExists(ctx, "post-42", "Second"))

		post, err := posts.Get(ctx, "post-42")
		require.NoError(t, err)
		assert.Equal(t, "First", post.Title)
		assert.Empty(t, post.AudioURL)

		require.NoError(t, posts.SetAudioURL(ctx, "post-42", "https://cdn.example.com/a.wav"))
		post, err = posts.Get(ctx, "post-42")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/a.wav", post.AudioURL)

		assert.ErrorIs(t, posts.SetAudioURL(ctx, "missing", "u"), store.ErrPostNotFound)
		_, err = posts.Get(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrPostNotFound)
	})
}

func TestTokenStore(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		tokens := postgres.NewPostgresTokenStore(tx)

		admin, err := domain.NewRecipientToken("admin-1", "laptop", "tok-a", true)
		require.NoError(t, err)
		user, err := domain.NewRecipientToken("user-1", "phone", "tok-u1", false)
		require.NoError(t, err)
		require.NoError(t, tokens.Upsert(ctx, admin))
		require.NoError(t, tokens.Upsert(ctx, user))

		user.Token = "tok-u2"
		require.NoError(t, tokens.Upsert(ctx, user))

		byUser, err := tokens.ListByUser(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, byUser, 1)
		assert.Equal(t, "tok-u2", byUser[0].Token)

		admins, err := tokens.ListAdmins(ctx)
		require.NoError(t, err)
		found := false
		for _, a := range admins {
			assert.True(t, a.IsAdmin)
			found = found || a.Token == "tok-a"
		}
		assert.True(t, found)

		require.NoError(t, tokens.DeleteByToken(ctx, "tok-a"))
		require.NoError(t, tokens.DeleteByToken(ctx, "tok-a"))
		require.NoError(t, tokens.Delete(ctx, "user-1", "phone"))
		assert.ErrorIs(t, tokens.Delete(ctx, "user-1", "phone"), store.ErrTokenNotFound)

		empty, err := tokens.ListByUser(ctx, "user-1")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

func TestConversationStore(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		conversations := postgres.NewPostgresConversationStore(tx)

		id := uuid.New()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO conversations (id, user_id, start_time) VALUES ($1, 'user-1', NOW() + INTERVAL '1 hour')`, id)
		require.NoError(t, err)
		_, err = tx.ExecContext(ctx, `
			INSERT INTO messages (conversation_id, role, content) VALUES
			($1, 'user', 'What is a monad?'),
			($1, 'model', 'A monoid in the category of endofunctors.')`, id)
		require.NoError(t, err)

		list, err := conversations.List(ctx, 10, 0)
		require.NoError(t, err)
		require.NotEmpty(t, list)
		assert.Equal(t, id, list[0].ID)
		assert.Equal(t, 2, list[0].MessageCount)
		assert.Equal(t, "What is a monad?", list[0].Preview)

		conv, err := conversations.Get(ctx, id)
		require.NoError(t, err)
		require.Len(t, conv.Messages, 2)
		assert.Equal(t, domain.MessageRoleUser, conv.Messages[0].Role)
		assert.Equal(t, domain.MessageRoleModel, conv.Messages[1].Role)

		_, err = conversations.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrConversationNotFound)
	})
}
