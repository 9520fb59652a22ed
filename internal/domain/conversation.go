package domain

import (
	"time"

	"github.com/google/uuid"
)

// MessageRole identifies who authored a message.
type MessageRole string

// Message roles
const (
	MessageRoleUser  MessageRole = "user"
	MessageRoleModel MessageRole = "model"
)

// IsValid reports whether the role is user or model.
func (r MessageRole) IsValid() bool {
	return r == MessageRoleUser || r == MessageRoleModel
}

// Message is one immutable entry of a conversation.
type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

// Conversation is an append-only exchange between a user and the model.
// Messages are kept in insertion order.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	StartTime time.Time `json:"start_time"`
	Messages  []Message `json:"messages"`
}

// ConversationSummary is the list view of a conversation.
type ConversationSummary struct {
	ID           uuid.UUID `json:"id"`
	UserID       string    `json:"user_id"`
	StartTime    time.Time `json:"start_time"`
	MessageCount int       `json:"message_count"`
	Preview      string    `json:"preview,omitempty"`
}

// PreviewLength bounds the first-message preview in conversation listings.
const PreviewLength = 80

// Preview returns a short excerpt of a message for listings.
func Preview(content string) string {
	return TruncateText(content, PreviewLength)
}
