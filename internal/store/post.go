package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/scry-worker/internal/domain"
)

// PostStore defines the operations the worker performs on target posts.
// The worker never owns a post's lifecycle; it only writes the audio reference.
type PostStore interface {
	// Get retrieves a post by its ID.
	// Returns ErrPostNotFound if the post does not exist.
	Get(ctx context.Context, id string) (*domain.Post, error)

	// EnsureExists inserts a placeholder post with the given title when none
	// exists yet. Existing posts are left untouched.
	EnsureExists(ctx context.Context, id, title string) error

	// SetAudioURL writes the audio reference onto the post.
	// Returns ErrPostNotFound if the post does not exist.
	SetAudioURL(ctx context.Context, id, audioURL string) error

	// WithTx returns a new PostStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) PostStore
}
