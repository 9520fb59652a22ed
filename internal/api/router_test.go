package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-worker/internal/domain"
	"github.com/phrazzld/scry-worker/internal/mocks"
	"github.com/phrazzld/scry-worker/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminToken = "admin-token"
	userToken  = "user-token"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

type testServer struct {
	handler       http.Handler
	tasks         *mocks.MockTaskStore
	tokens        *mocks.MockTokenStore
	conversations *mocks.MockConversationStore
}

func newTestServer(t *testing.T, db Pinger) *testServer {
	t.Helper()

	jwt := &mocks.MockJWTService{
		ValidateTokenFn: func(_ context.Context, token string) (*auth.Claims, error) {
			switch token {
			case adminToken:
				return &auth.Claims{UserID: "admin-1", Admin: true}, nil
			case userToken:
				return &auth.Claims{UserID: "user-1"}, nil
			default:
				return nil, auth.ErrInvalidToken
			}
		},
	}

	ts := &testServer{
		tasks:         mocks.NewMockTaskStore(),
		tokens:        mocks.NewMockTokenStore(),
		conversations: &mocks.MockConversationStore{},
	}
	ts.handler = NewRouter(RouterDeps{
		Tasks:         ts.tasks,
		Tokens:        ts.tokens,
		Conversations: ts.conversations,
		JWT:           jwt,
		DB:            db,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return ts
}

func (ts *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, path, rdr)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, r)
	return w
}

func TestHealth(t *testing.T) {
	t.Parallel()

	ok := newTestServer(t, pingerFunc(func(context.Context) error { return nil }))
	w := ok.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	down := newTestServer(t, pingerFunc(func(context.Context) error { return errors.New("connection refused") }))
	w = down.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestAPIRequiresAuthentication(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)

	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodGet, "/api/conversations", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodGet, "/api/conversations", "forged", "").Code)
	assert.Equal(t, http.StatusForbidden, ts.do(http.MethodGet, "/api/conversations", userToken, "").Code)
	assert.Equal(t, http.StatusForbidden, ts.do(http.MethodGet, "/api/tasks/"+uuid.NewString(), userToken, "").Code)
}

func TestGetTask(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	failed := &domain.Task{
		ID:        uuid.New(),
		Type:      domain.TaskTypeGenerateAudio,
		Status:    domain.TaskStatusFailed,
		Payload:   json.RawMessage(`{"targetId":"post-42","text":"Hello"}`),
		Error:     "speech synthesis failed: model overloaded",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	ts.tasks.Put(failed)

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		w := ts.do(http.MethodGet, "/api/tasks/"+failed.ID.String(), adminToken, "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp TaskResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, failed.ID, resp.ID)
		assert.Equal(t, domain.TaskStatusFailed, resp.Status)
		assert.Equal(t, failed.Error, resp.Error)
		assert.JSONEq(t, string(failed.Payload), string(resp.Payload))
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		w := ts.do(http.MethodGet, "/api/tasks/"+uuid.NewString(), adminToken, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Task not found")
	})

	t.Run("bad id", func(t *testing.T) {
		t.Parallel()

		w := ts.do(http.MethodGet, "/api/tasks/not-a-uuid", adminToken, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid task ID")
	})
}

func TestConversations(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	older := &domain.Conversation{
		ID:        uuid.New(),
		UserID:    "u1",
		StartTime: base,
		Messages: []domain.Message{
			{Role: domain.MessageRoleUser, Content: "first question", Timestamp: base},
			{Role: domain.MessageRoleModel, Content: "first answer", Timestamp: base.Add(time.Second)},
		},
	}
	newer := &domain.Conversation{ID: uuid.New(), UserID: "u2", StartTime: base.Add(time.Hour)}
	ts.conversations.Conversations = []*domain.Conversation{older, newer}

	t.Run("list most recent first", func(t *testing.T) {
		t.Parallel()

		w := ts.do(http.MethodGet, "/api/conversations", adminToken, "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp ConversationListResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Conversations, 2)
		assert.Equal(t, newer.ID, resp.Conversations[0].ID)
		assert.Equal(t, older.ID, resp.Conversations[1].ID)
		assert.Equal(t, 2, resp.Conversations[1].MessageCount)
		assert.Equal(t, "first question", resp.Conversations[1].Preview)
		assert.Equal(t, DefaultPageSize, resp.Limit)
	})

	t.Run("pagination", func(t *testing.T) {
		t.Parallel()

		w := ts.do(http.MethodGet, "/api/conversations?limit=1&offset=1", adminToken, "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp ConversationListResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Conversations, 1)
		assert.Equal(t, older.ID, resp.Conversations[0].ID)
		assert.Equal(t, 1, resp.Offset)
	})

	t.Run("limit is clamped", func(t *testing.T) {
		t.Parallel()

		w := ts.do(http.MethodGet, "/api/conversations?limit=100000", adminToken, "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp ConversationListResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, MaxPageSize, resp.Limit)
	})

	t.Run("invalid pagination", func(t *testing.T) {
		t.Parallel()

		w := ts.do(http.MethodGet, "/api/conversations?offset=-3", adminToken, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get with messages in order", func(t *testing.T) {
		t.Parallel()

		w := ts.do(http.MethodGet, "/api/conversations/"+older.ID.String(), adminToken, "")
		require.Equal(t, http.StatusOK, w.Code)

		var conv domain.Conversation
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conv))
		require.Len(t, conv.Messages, 2)
		assert.Equal(t, "first question", conv.Messages[0].Content)
		assert.Equal(t, domain.MessageRoleModel, conv.Messages[1].Role)
	})

	t.Run("get unknown", func(t *testing.T) {
		t.Parallel()

		w := ts.do(http.MethodGet, "/api/conversations/"+uuid.NewString(), adminToken, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Conversation not found")
	})
}

func TestListConversationsStoreFailure(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	ts.conversations.ListFn = func(context.Context, int, int) ([]*domain.ConversationSummary, error) {
		return nil, errors.New("relation conversations does not exist")
	}

	w := ts.do(http.MethodGet, "/api/conversations", adminToken, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to list conversations")
	assert.NotContains(t, w.Body.String(), "relation")
}

func TestRegisterToken(t *testing.T) {
	t.Parallel()

	t.Run("user token is not admin", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t, nil)
		w := ts.do(http.MethodPut, "/api/tokens", userToken, `{"deviceId":"phone","token":"fcm-1"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "fcm-1")

		all := ts.tokens.All()
		require.Len(t, all, 1)
		assert.Equal(t, "user-1", all[0].UserID)
		assert.Equal(t, "phone", all[0].DeviceID)
		assert.Equal(t, "fcm-1", all[0].Token)
		assert.False(t, all[0].IsAdmin)
	})

	t.Run("refresh replaces device token", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t, nil)
		require.Equal(t, http.StatusOK,
			ts.do(http.MethodPut, "/api/tokens", adminToken, `{"deviceId":"laptop","token":"old"}`).Code)
		require.Equal(t, http.StatusOK,
			ts.do(http.MethodPut, "/api/tokens", adminToken, `{"deviceId":"laptop","token":"new"}`).Code)

		all := ts.tokens.All()
		require.Len(t, all, 1)
		assert.Equal(t, "new", all[0].Token)
		assert.True(t, all[0].IsAdmin)
	})

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "missing token", body: `{"deviceId":"phone"}`, want: "Invalid token: required field"},
		{name: "missing device", body: `{"token":"t"}`, want: "Invalid deviceId: required field"},
		{name: "unknown field", body: `{"deviceId":"p","token":"t","admin":true}`, want: "Invalid request format"},
		{name: "malformed", body: `{`, want: "Invalid request format"},
		{name: "blank device", body: `{"deviceId":"  ","token":"t"}`, want: "Invalid request data"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ts := newTestServer(t, nil)
			w := ts.do(http.MethodPut, "/api/tokens", userToken, tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tc.want)
			assert.Empty(t, ts.tokens.All())
		})
	}
}

func TestDeleteToken(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	require.Equal(t, http.StatusOK,
		ts.do(http.MethodPut, "/api/tokens", userToken, `{"deviceId":"phone","token":"t1"}`).Code)

	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/api/tokens/phone", userToken, "").Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, "/api/tokens/phone", userToken, "").Code)
}
