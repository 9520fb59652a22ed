package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AudioPayload is the input of a generateAudio task.
type AudioPayload struct {
	// TargetID is the post that receives the generated audio URL.
	TargetID string `json:"targetId"`
	// Text is spoken verbatim.
	Text string `json:"text"`
	// Voice optionally overrides the configured default voice.
	Voice string `json:"voice,omitempty"`
	// NotifyUserID, when set, sends the completion notice to that user
	// instead of the admin pool.
	NotifyUserID string `json:"notifyUserId,omitempty"`
}

// AudioResult is the result document of a completed generateAudio task.
type AudioResult struct {
	AudioURL string `json:"audioUrl"`
}

// Validate checks that the payload names a target and carries text.
func (p AudioPayload) Validate() error {
	if strings.TrimSpace(p.TargetID) == "" {
		return fmt.Errorf("%w: targetId is required", ErrInvalidPayload)
	}
	if strings.TrimSpace(p.Text) == "" {
		return fmt.Errorf("%w: text is required", ErrInvalidPayload)
	}
	return nil
}

// DecodeAudioPayload parses and validates a generateAudio payload.
func DecodeAudioPayload(raw json.RawMessage) (AudioPayload, error) {
	var p AudioPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return AudioPayload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := p.Validate(); err != nil {
		return AudioPayload{}, err
	}
	return p, nil
}
