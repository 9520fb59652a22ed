package auth

import "errors"

// Token errors. Callers map all of them to 401 responses.
var (
	ErrInvalidToken     = errors.New("invalid authentication token")
	ErrExpiredToken     = errors.New("authentication token has expired")
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")
	ErrMissingToken     = errors.New("authentication token is missing")
	ErrEmptyUserID      = errors.New("user ID cannot be empty")
)
