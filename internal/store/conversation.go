package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-worker/internal/domain"
)

// ConversationStore is the read path used by the operator viewer.
type ConversationStore interface {
	// List returns conversation summaries, most recent first.
	List(ctx context.Context, limit, offset int) ([]*domain.ConversationSummary, error)

	// Get returns a conversation with its messages in insertion order.
	// Returns ErrConversationNotFound if the conversation does not exist.
	Get(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
}
