package mocks

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-worker/internal/domain"
	"github.com/phrazzld/scry-worker/internal/store"
)

// MockConversationStore implements store.ConversationStore over a fixed set
// of conversations.
type MockConversationStore struct {
	Conversations []*domain.Conversation

	ListFn func(ctx context.Context, limit, offset int) ([]*domain.ConversationSummary, error)
}

var _ store.ConversationStore = (*MockConversationStore)(nil)

// List implements store.ConversationStore.
func (s *MockConversationStore) List(ctx context.Context, limit, offset int) ([]*domain.ConversationSummary, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx, limit, offset)
	}

	sorted := append([]*domain.Conversation(nil), s.Conversations...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartTime.After(sorted[j].StartTime) })

	out := make([]*domain.ConversationSummary, 0, len(sorted))
	for i := offset; i < len(sorted) && len(out) < limit; i++ {
		c := sorted[i]
		sum := &domain.ConversationSummary{
			ID:           c.ID,
			UserID:       c.UserID,
			StartTime:    c.StartTime,
			MessageCount: len(c.Messages),
		}
		if len(c.Messages) > 0 {
			sum.Preview = domain.Preview(c.Messages[0].Content)
		}
		out = append(out, sum)
	}
	return out, nil
}

// Get implements store.ConversationStore.
func (s *MockConversationStore) Get(_ context.Context, id uuid.UUID) (*domain.Conversation, error) {
	for _, c := range s.Conversations {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, store.ErrConversationNotFound
}
