package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-worker/internal/api/shared"
	"github.com/phrazzld/scry-worker/internal/platform/logger"
	"github.com/phrazzld/scry-worker/internal/store"
)

// ConversationHandler serves the read-only conversation viewer.
type ConversationHandler struct {
	conversations store.ConversationStore
	logger        *slog.Logger
}

// NewConversationHandler creates a ConversationHandler.
func NewConversationHandler(conversations store.ConversationStore, logger *slog.Logger) *ConversationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConversationHandler{
		conversations: conversations,
		logger:        logger.With("component", "conversation_handler"),
	}
}

// ListConversations handles GET /api/conversations.
func (h *ConversationHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	limit, offset, err := pagination(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	summaries, err := h.conversations.List(r.Context(), limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list conversations")
		return
	}

	log.Debug("listed conversations", "count", len(summaries), "limit", limit, "offset", offset)
	shared.RespondWithJSON(w, r, http.StatusOK, ConversationListResponse{
		Conversations: summaries,
		Limit:         limit,
		Offset:        offset,
	})
}

// GetConversation handles GET /api/conversations/{id}.
func (h *ConversationHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid conversation ID")
		return
	}

	conv, err := h.conversations.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, conv)
}
