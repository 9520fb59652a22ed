package notify

import (
	"context"
	"sync"

	"github.com/phrazzld/scry-worker/internal/domain"
)

// MockGateway records sends. Function fields override the default behaviour
// of delivering everything.
type MockGateway struct {
	mu           sync.Mutex
	ManyCalls    [][]string
	OneCalls     []string
	LastMessage  Message
	SendToManyFn func(ctx context.Context, tokens []string, msg Message) ([]SendResult, error)
	SendToOneFn  func(ctx context.Context, token string, msg Message) (string, error)
}

func (g *MockGateway) SendToMany(ctx context.Context, tokens []string, msg Message) ([]SendResult, error) {
	g.mu.Lock()
	g.ManyCalls = append(g.ManyCalls, tokens)
	g.LastMessage = msg
	g.mu.Unlock()

	if g.SendToManyFn != nil {
		return g.SendToManyFn(ctx, tokens, msg)
	}
	results := make([]SendResult, len(tokens))
	for i, tok := range tokens {
		results[i] = SendResult{MessageID: "msg-" + tok}
	}
	return results, nil
}

func (g *MockGateway) SendToOne(ctx context.Context, token string, msg Message) (string, error) {
	g.mu.Lock()
	g.OneCalls = append(g.OneCalls, token)
	g.LastMessage = msg
	g.mu.Unlock()

	if g.SendToOneFn != nil {
		return g.SendToOneFn(ctx, token, msg)
	}
	return "msg-" + token, nil
}

func (g *MockGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.ManyCalls) + len(g.OneCalls)
}

// MockTokenSource serves tokens from memory.
type MockTokenSource struct {
	mu       sync.Mutex
	Admins   []*domain.RecipientToken
	ByUser   map[string][]*domain.RecipientToken
	Deleted  []string
	ListErr  error
	DeleteFn func(token string) error
}

func (s *MockTokenSource) ListByUser(_ context.Context, userID string) ([]*domain.RecipientToken, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	return s.ByUser[userID], nil
}

func (s *MockTokenSource) ListAdmins(_ context.Context) ([]*domain.RecipientToken, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	return s.Admins, nil
}

func (s *MockTokenSource) DeleteByToken(_ context.Context, token string) error {
	if s.DeleteFn != nil {
		if err := s.DeleteFn(token); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Deleted = append(s.Deleted, token)
	return nil
}

func adminToken(user, token string) *domain.RecipientToken {
	return &domain.RecipientToken{UserID: user, DeviceID: "device-" + token, Token: token, IsAdmin: true}
}
