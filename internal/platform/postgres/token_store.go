package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/phrazzld/scry-worker/internal/domain"
	"github.com/phrazzld/scry-worker/internal/platform/logger"
	"github.com/phrazzld/scry-worker/internal/store"
)

// PostgresTokenStore implements store.TokenStore using PostgreSQL.
type PostgresTokenStore struct {
	db store.DBTX
}

var _ store.TokenStore = (*PostgresTokenStore)(nil)

// NewPostgresTokenStore creates a new PostgresTokenStore.
func NewPostgresTokenStore(db store.DBTX) *PostgresTokenStore {
	return &PostgresTokenStore{db: db}
}

// Upsert stores the token for its (user, device) pair.
func (s *PostgresTokenStore) Upsert(ctx context.Context, token *domain.RecipientToken) error {
	if err := token.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	if token.UpdatedAt.IsZero() {
		token.UpdatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recipient_tokens (user_id, device_id, token, is_admin, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, device_id) DO UPDATE
		SET token = EXCLUDED.token,
		    is_admin = EXCLUDED.is_admin,
		    updated_at = EXCLUDED.updated_at`,
		token.UserID, token.DeviceID, token.Token, token.IsAdmin, token.UpdatedAt,
	)
	if err != nil {
		logger.FromContext(ctx).Error("failed to upsert token",
			"user_id", token.UserID, "device_id", token.DeviceID, "error", err)
		return MapError(err)
	}
	return nil
}

// Delete removes the token registered for a user's device.
func (s *PostgresTokenStore) Delete(ctx context.Context, userID, deviceID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM recipient_tokens WHERE user_id = $1 AND device_id = $2`, userID, deviceID)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTokenNotFound)
}

// DeleteByToken removes every registration carrying the token value.
func (s *PostgresTokenStore) DeleteByToken(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM recipient_tokens WHERE token = $1`, token)
	return MapError(err)
}

// ListByUser returns all tokens registered for one user.
func (s *PostgresTokenStore) ListByUser(ctx context.Context, userID string) ([]*domain.RecipientToken, error) {
	return s.list(ctx, `WHERE user_id = $1`, userID)
}

// ListAdmins returns all tokens of admin pool members.
func (s *PostgresTokenStore) ListAdmins(ctx context.Context) ([]*domain.RecipientToken, error) {
	return s.list(ctx, `WHERE is_admin`)
}

func (s *PostgresTokenStore) list(ctx context.Context, where string, args ...any) ([]*domain.RecipientToken, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, device_id, token, is_admin, updated_at
		FROM recipient_tokens `+where+`
		ORDER BY user_id, device_id`, args...)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list tokens", "error", err)
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tokens := make([]*domain.RecipientToken, 0)
	for rows.Next() {
		var t domain.RecipientToken
		if err := rows.Scan(&t.UserID, &t.DeviceID, &t.Token, &t.IsAdmin, &t.UpdatedAt); err != nil {
			return nil, MapError(err)
		}
		tokens = append(tokens, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return tokens, nil
}
