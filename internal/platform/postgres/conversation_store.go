package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-worker/internal/domain"
	"github.com/phrazzld/scry-worker/internal/platform/logger"
	"github.com/phrazzld/scry-worker/internal/store"
)

// PostgresConversationStore implements store.ConversationStore using PostgreSQL.
type PostgresConversationStore struct {
	db store.DBTX
}

var _ store.ConversationStore = (*PostgresConversationStore)(nil)

// NewPostgresConversationStore creates a new PostgresConversationStore.
func NewPostgresConversationStore(db store.DBTX) *PostgresConversationStore {
	return &PostgresConversationStore{db: db}
}

// List returns conversation summaries, most recent first.
func (s *PostgresConversationStore) List(
	ctx context.Context,
	limit, offset int,
) ([]*domain.ConversationSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.user_id, c.start_time,
		       (SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id),
		       COALESCE((SELECT m.content FROM messages m
		                 WHERE m.conversation_id = c.id
		                 ORDER BY m.id LIMIT 1), '')
		FROM conversations c
		ORDER BY c.start_time DESC
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list conversations", "error", err)
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	summaries := make([]*domain.ConversationSummary, 0)
	for rows.Next() {
		var (
			sum   domain.ConversationSummary
			first string
		)
		if err := rows.Scan(&sum.ID, &sum.UserID, &sum.StartTime, &sum.MessageCount, &first); err != nil {
			return nil, MapError(err)
		}
		sum.Preview = domain.Preview(first)
		summaries = append(summaries, &sum)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return summaries, nil
}

// Get returns a conversation with its messages in insertion order.
func (s *PostgresConversationStore) Get(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, start_time FROM conversations WHERE id = $1`, id,
	).Scan(&conv.ID, &conv.UserID, &conv.StartTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrConversationNotFound
		}
		logger.FromContext(ctx).Error("failed to get conversation", "conversation_id", id, "error", err)
		return nil, MapError(err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY id`, id)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	conv.Messages = make([]domain.Message, 0)
	for rows.Next() {
		var (
			msg  domain.Message
			role string
		)
		if err := rows.Scan(&role, &msg.Content, &msg.Timestamp); err != nil {
			return nil, MapError(err)
		}
		msg.Role = domain.MessageRole(role)
		conv.Messages = append(conv.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return &conv, nil
}
