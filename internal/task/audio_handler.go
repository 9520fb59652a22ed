package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/scry-worker/internal/domain"
	"github.com/phrazzld/scry-worker/internal/generation"
	"github.com/phrazzld/scry-worker/internal/notify"
	"github.com/phrazzld/scry-worker/internal/platform/logger"
	"github.com/phrazzld/scry-worker/internal/store"
)

// ErrPropagation marks a task whose artifact was generated but could not be
// attached to its target.
var ErrPropagation = errors.New("generated artifact could not be attached to target")

// PropagationError carries the orphaned artifact so an operator can re-link it.
type PropagationError struct {
	TargetID    string
	ArtifactURL string
	Err         error
}

func (e *PropagationError) Error() string {
	return fmt.Sprintf("artifact %s could not be attached to post %s: %v", e.ArtifactURL, e.TargetID, e.Err)
}

// Unwrap exposes both the sentinel and the store error.
func (e *PropagationError) Unwrap() []error {
	return []error{ErrPropagation, e.Err}
}

// AudioHandlerConfig configures the completion notice.
type AudioHandlerConfig struct {
	// NotifyTitle is the notice title; empty disables notices.
	NotifyTitle string
	// LinkBaseURL, when set, deep-links the notice to LinkBaseURL/<targetId>.
	LinkBaseURL string
}

// AudioHandler turns a post's text into audio and stores the URL on the post.
type AudioHandler struct {
	generator generation.AudioGenerator
	posts     store.PostStore
	config    AudioHandlerConfig
	logger    *slog.Logger
}

// NewAudioHandler creates an AudioHandler.
func NewAudioHandler(
	generator generation.AudioGenerator,
	posts store.PostStore,
	config AudioHandlerConfig,
	logger *slog.Logger,
) *AudioHandler {
	return &AudioHandler{
		generator: generator,
		posts:     posts,
		config:    config,
		logger:    logger.With("component", "audio_handler"),
	}
}

// Handle generates the audio once, then writes its URL onto the target post.
func (h *AudioHandler) Handle(ctx context.Context, t *domain.Task) (*Outcome, error) {
	log := logger.FromContextOrDefault(ctx, h.logger)

	payload, err := domain.DecodeAudioPayload(t.Payload)
	if err != nil {
		return nil, err
	}
	log = log.With("target_id", payload.TargetID)

	artifact, err := h.generator.Generate(ctx, generation.Request{
		Key:   payload.TargetID,
		Text:  payload.Text,
		Voice: payload.Voice,
	})
	if err != nil {
		return nil, fmt.Errorf("audio generation failed: %w", err)
	}
	log.Debug("audio generated", "audio_url", artifact.URL)

	if err := h.posts.SetAudioURL(ctx, payload.TargetID, artifact.URL); err != nil {
		return nil, &PropagationError{TargetID: payload.TargetID, ArtifactURL: artifact.URL, Err: err}
	}

	result, err := json.Marshal(domain.AudioResult{AudioURL: artifact.URL})
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Result:       result,
		Notification: h.notification(payload, artifact.URL),
	}, nil
}

func (h *AudioHandler) notification(p domain.AudioPayload, audioURL string) *notify.Request {
	if h.config.NotifyTitle == "" {
		return nil
	}

	to := notify.ToAdmins()
	if p.NotifyUserID != "" {
		to = notify.ToUser(p.NotifyUserID)
	}

	req := &notify.Request{
		Recipients: to,
		Title:      h.config.NotifyTitle,
		Body:       p.Text,
		Data: map[string]string{
			"targetId": p.TargetID,
			"audioUrl": audioURL,
		},
	}
	if h.config.LinkBaseURL != "" {
		req.Link = strings.TrimRight(h.config.LinkBaseURL, "/") + "/" + p.TargetID
	}
	return req
}
