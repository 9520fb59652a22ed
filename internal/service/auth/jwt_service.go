package auth

import (
	"context"
	"time"
)

// JWTService issues and validates the bearer tokens accepted by the operator API.
type JWTService interface {
	// GenerateToken creates a signed token for userID. Admin tokens unlock the
	// conversation endpoints and mark registered push tokens as admin recipients.
	GenerateToken(ctx context.Context, userID string, admin bool) (string, error)

	// ValidateToken checks the signature and time claims of tokenString and
	// returns its claims.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the validated content of a token.
type Claims struct {
	UserID    string    `json:"uid,omitempty"`
	Admin     bool      `json:"adm,omitempty"`
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
