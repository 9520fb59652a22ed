package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/phrazzld/scry-worker/internal/domain"
	"github.com/phrazzld/scry-worker/internal/platform/logger"
	"github.com/phrazzld/scry-worker/internal/store"
)

// PostgresPostStore implements store.PostStore using PostgreSQL.
type PostgresPostStore struct {
	db store.DBTX
}

var _ store.PostStore = (*PostgresPostStore)(nil)

// NewPostgresPostStore creates a new PostgresPostStore.
func NewPostgresPostStore(db store.DBTX) *PostgresPostStore {
	return &PostgresPostStore{db: db}
}

// WithTx returns a new post store instance that uses the provided transaction.
func (s *PostgresPostStore) WithTx(tx *sql.Tx) store.PostStore {
	return &PostgresPostStore{db: tx}
}

// Get retrieves a post by its ID.
func (s *PostgresPostStore) Get(ctx context.Context, id string) (*domain.Post, error) {
	var (
		post     domain.Post
		audioURL sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, body, audio_url, created_at, updated_at
		FROM posts WHERE id = $1`, id,
	).Scan(&post.ID, &post.Title, &post.Body, &audioURL, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrPostNotFound
		}
		logger.FromContext(ctx).Error("failed to get post", "post_id", id, "error", err)
		return nil, MapError(err)
	}
	post.AudioURL = audioURL.String
	return &post, nil
}

// EnsureExists inserts a placeholder post unless one with the ID exists.
func (s *PostgresPostStore) EnsureExists(ctx context.Context, id, title string) error {
	if strings.TrimSpace(id) == "" {
		return store.ErrInvalidEntity
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (id) DO NOTHING`,
		id, title, now,
	)
	if err != nil {
		logger.FromContext(ctx).Error("failed to ensure post", "post_id", id, "error", err)
		return MapError(err)
	}
	return nil
}

// SetAudioURL writes the audio reference onto the post.
func (s *PostgresPostStore) SetAudioURL(ctx context.Context, id, audioURL string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE posts SET audio_url = $2, updated_at = $3 WHERE id = $1`,
		id, audioURL, time.Now().UTC(),
	)
	if err != nil {
		logger.FromContext(ctx).Error("failed to set audio URL", "post_id", id, "error", err)
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrPostNotFound)
}
