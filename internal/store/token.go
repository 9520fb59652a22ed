package store

import (
	"context"

	"github.com/phrazzld/scry-worker/internal/domain"
)

// TokenStore defines persistence for push delivery tokens.
// At most one token is stored per (user, device) pair.
type TokenStore interface {
	// Upsert stores the token for its (user, device) pair, replacing any
	// previous token for that device.
	Upsert(ctx context.Context, token *domain.RecipientToken) error

	// Delete removes the token registered for the given user and device.
	// Returns ErrTokenNotFound if nothing was registered.
	Delete(ctx context.Context, userID, deviceID string) error

	// DeleteByToken removes every registration carrying the given token value.
	// Removing an unknown token is not an error.
	DeleteByToken(ctx context.Context, token string) error

	// ListByUser returns all tokens registered for one user.
	// An empty slice is returned when the user has no tokens.
	ListByUser(ctx context.Context, userID string) ([]*domain.RecipientToken, error)

	// ListAdmins returns all tokens belonging to members of the admin pool.
	ListAdmins(ctx context.Context) ([]*domain.RecipientToken, error)
}
