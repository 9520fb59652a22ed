package domain

import (
	"errors"
	"strings"
	"time"
)

// Validation errors for RecipientToken
var (
	ErrEmptyRecipientID = errors.New("recipient user ID cannot be empty")
	ErrEmptyDeviceID    = errors.New("device ID cannot be empty")
	ErrEmptyToken       = errors.New("delivery token cannot be empty")
)

// RecipientToken is the delivery address of one device of one recipient.
// There is at most one token per (UserID, DeviceID); a refresh overwrites it.
type RecipientToken struct {
	UserID    string    `json:"user_id"`
	DeviceID  string    `json:"device_id"`
	Token     string    `json:"token"`
	IsAdmin   bool      `json:"is_admin"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRecipientToken builds a validated token record stamped with the current time.
func NewRecipientToken(userID, deviceID, token string, isAdmin bool) (*RecipientToken, error) {
	t := &RecipientToken{
		UserID:    strings.TrimSpace(userID),
		DeviceID:  strings.TrimSpace(deviceID),
		Token:     strings.TrimSpace(token),
		IsAdmin:   isAdmin,
		UpdatedAt: time.Now().UTC(),
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks that all address parts are present.
func (t *RecipientToken) Validate() error {
	if t.UserID == "" {
		return ErrEmptyRecipientID
	}
	if t.DeviceID == "" {
		return ErrEmptyDeviceID
	}
	if t.Token == "" {
		return ErrEmptyToken
	}
	return nil
}
