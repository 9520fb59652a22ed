package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/phrazzld/scry-worker/internal/domain"
	"github.com/phrazzld/scry-worker/internal/store"
)

type tokenKey struct{ user, device string }

// MockTokenStore implements store.TokenStore in memory.
type MockTokenStore struct {
	mu     sync.Mutex
	tokens map[tokenKey]domain.RecipientToken

	UpsertFn func(ctx context.Context, token *domain.RecipientToken) error
}

var _ store.TokenStore = (*MockTokenStore)(nil)

// NewMockTokenStore creates a MockTokenStore holding tokens.
func NewMockTokenStore(tokens ...*domain.RecipientToken) *MockTokenStore {
	s := &MockTokenStore{tokens: make(map[tokenKey]domain.RecipientToken)}
	for _, t := range tokens {
		s.tokens[tokenKey{t.UserID, t.DeviceID}] = *t
	}
	return s
}

// Upsert implements store.TokenStore.
func (s *MockTokenStore) Upsert(ctx context.Context, token *domain.RecipientToken) error {
	if s.UpsertFn != nil {
		return s.UpsertFn(ctx, token)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenKey{token.UserID, token.DeviceID}] = *token
	return nil
}

// Delete implements store.TokenStore.
func (s *MockTokenStore) Delete(_ context.Context, userID, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := tokenKey{userID, deviceID}
	if _, ok := s.tokens[k]; !ok {
		return store.ErrTokenNotFound
	}
	delete(s.tokens, k)
	return nil
}

// DeleteByToken implements store.TokenStore.
func (s *MockTokenStore) DeleteByToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, t := range s.tokens {
		if t.Token == token {
			delete(s.tokens, k)
		}
	}
	return nil
}

// ListByUser implements store.TokenStore.
func (s *MockTokenStore) ListByUser(_ context.Context, userID string) ([]*domain.RecipientToken, error) {
	return s.filter(func(t domain.RecipientToken) bool { return t.UserID == userID }), nil
}

// ListAdmins implements store.TokenStore.
func (s *MockTokenStore) ListAdmins(context.Context) ([]*domain.RecipientToken, error) {
	return s.filter(func(t domain.RecipientToken) bool { return t.IsAdmin }), nil
}

// All returns every stored token ordered by user and device.
func (s *MockTokenStore) All() []*domain.RecipientToken {
	return s.filter(func(domain.RecipientToken) bool { return true })
}

func (s *MockTokenStore) filter(keep func(domain.RecipientToken) bool) []*domain.RecipientToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.RecipientToken, 0, len(s.tokens))
	for _, t := range s.tokens {
		if keep(t) {
			cp := t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].DeviceID < out[j].DeviceID
	})
	return out
}
