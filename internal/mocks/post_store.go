package mocks

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/phrazzld/scry-worker/internal/domain"
	"github.com/phrazzld/scry-worker/internal/store"
)

// MockPostStore implements store.PostStore in memory.
type MockPostStore struct {
	mu    sync.Mutex
	posts map[string]*domain.Post

	SetAudioURLFn func(ctx context.Context, id, audioURL string) error
}

var _ store.PostStore = (*MockPostStore)(nil)

// NewMockPostStore creates a store holding the given post IDs.
func NewMockPostStore(ids ...string) *MockPostStore {
	s := &MockPostStore{posts: make(map[string]*domain.Post)}
	for _, id := range ids {
		s.posts[id] = &domain.Post{ID: id, Title: id, CreatedAt: time.Now().UTC()}
	}
	return s
}

// Get implements store.PostStore.
func (s *MockPostStore) Get(_ context.Context, id string) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, store.ErrPostNotFound
	}
	cp := *p
	return &cp, nil
}

// EnsureExists implements store.PostStore.
func (s *MockPostStore) EnsureExists(_ context.Context, id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		s.posts[id] = &domain.Post{ID: id, Title: title, CreatedAt: time.Now().UTC()}
	}
	return nil
}

// SetAudioURL implements store.PostStore.
func (s *MockPostStore) SetAudioURL(ctx context.Context, id, audioURL string) error {
	if s.SetAudioURLFn != nil {
		return s.SetAudioURLFn(ctx, id, audioURL)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return store.ErrPostNotFound
	}
	p.AudioURL = audioURL
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// WithTx implements store.PostStore.
func (s *MockPostStore) WithTx(*sql.Tx) store.PostStore {
	return s
}
