package mocks

import (
	"context"

	"github.com/phrazzld/scry-worker/internal/service/auth"
)

// MockJWTService is a configurable auth.JWTService. By default every
// validation succeeds with Claims.
type MockJWTService struct {
	Claims *auth.Claims
	Token  string
	Err    error

	GenerateTokenFn func(ctx context.Context, userID string, admin bool) (string, error)
	ValidateTokenFn func(ctx context.Context, token string) (*auth.Claims, error)
}

var _ auth.JWTService = (*MockJWTService)(nil)

// GenerateToken implements auth.JWTService.
func (m *MockJWTService) GenerateToken(ctx context.Context, userID string, admin bool) (string, error) {
	if m.GenerateTokenFn != nil {
		return m.GenerateTokenFn(ctx, userID, admin)
	}
	return m.Token, m.Err
}

// ValidateToken implements auth.JWTService.
func (m *MockJWTService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, token)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Claims, nil
}
