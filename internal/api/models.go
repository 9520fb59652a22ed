package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-worker/internal/domain"
)

// Page size bounds for list endpoints.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// RegisterTokenRequest is the body of PUT /api/tokens.
type RegisterTokenRequest struct {
	DeviceID string `json:"deviceId" validate:"required,max=256"`
	Token    string `json:"token"    validate:"required,max=4096"`
}

// TokenResponse describes a stored device registration. The token value
// itself is not echoed back.
type TokenResponse struct {
	UserID    string    `json:"user_id"`
	DeviceID  string    `json:"device_id"`
	IsAdmin   bool      `json:"is_admin"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationListResponse is one page of conversation summaries.
type ConversationListResponse struct {
	Conversations []*domain.ConversationSummary `json:"conversations"`
	Limit         int                           `json:"limit"`
	Offset        int                           `json:"offset"`
}

// TaskResponse is the operator view of a task record.
type TaskResponse struct {
	ID         uuid.UUID         `json:"id"`
	Type       string            `json:"type"`
	Status     domain.TaskStatus `json:"status"`
	Payload    json.RawMessage   `json:"payload"`
	Result     json.RawMessage   `json:"result,omitempty"`
	Error      string            `json:"error,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	StartedAt  *time.Time        `json:"started_at,omitempty"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func newTaskResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:         t.ID,
		Type:       t.Type,
		Status:     t.Status,
		Payload:    t.Payload,
		Result:     t.Result,
		Error:      t.Error,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
		StartedAt:  t.StartedAt,
		FinishedAt: t.FinishedAt,
	}
}

func newTokenResponse(t *domain.RecipientToken) TokenResponse {
	return TokenResponse{
		UserID:    t.UserID,
		DeviceID:  t.DeviceID,
		IsAdmin:   t.IsAdmin,
		UpdatedAt: t.UpdatedAt,
	}
}
