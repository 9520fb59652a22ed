package generation

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/phrazzld/scry-worker/internal/platform/logger"
)

// DefaultKeyPrefix is the folder artifacts are written under.
const DefaultKeyPrefix = "audio"

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SpeechPipeline is an AudioGenerator that synthesizes speech and stores the
// result.
type SpeechPipeline struct {
	synth     Synthesizer
	artifacts ArtifactStore
	keyPrefix string
	logger    *slog.Logger
}

// NewSpeechPipeline creates a SpeechPipeline.
func NewSpeechPipeline(synth Synthesizer, artifacts ArtifactStore, logger *slog.Logger) (*SpeechPipeline, error) {
	if synth == nil || artifacts == nil {
		return nil, fmt.Errorf("%w: synthesizer and artifact store are required", ErrInvalidConfig)
	}
	return &SpeechPipeline{
		synth:     synth,
		artifacts: artifacts,
		keyPrefix: DefaultKeyPrefix,
		logger:    logger.With("component", "speech_pipeline"),
	}, nil
}

// Generate synthesizes req.Text and stores it under a key derived from req.Key.
func (p *SpeechPipeline) Generate(ctx context.Context, req Request) (*Artifact, error) {
	log := logger.FromContextOrDefault(ctx, p.logger)

	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyText
	}

	start := time.Now()
	audio, err := p.synth.Synthesize(ctx, req.Text, req.Voice)
	if err != nil {
		return nil, err
	}
	if audio == nil || len(audio.Data) == 0 {
		return nil, fmt.Errorf("%w: no audio data", ErrInvalidResponse)
	}

	key := ObjectKey(p.keyPrefix, req.Key, audio.MIMEType)
	url, err := p.artifacts.Put(ctx, key, audio.MIMEType, audio.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageFailed, err)
	}

	log.Info("audio generated",
		"object_key", key,
		"bytes", len(audio.Data),
		"duration_ms", time.Since(start).Milliseconds())

	return &Artifact{
		URL:         url,
		ContentType: audio.MIMEType,
		Size:        int64(len(audio.Data)),
	}, nil
}

// ObjectKey builds a storage key such as "audio/post-42.wav" from a request
// key and the audio MIME type.
func ObjectKey(prefix, key, mimeType string) string {
	name := unsafeKeyChars.ReplaceAllString(strings.TrimSpace(key), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "artifact"
	}
	return path.Join(prefix, name+extensionFor(mimeType))
}

func extensionFor(mimeType string) string {
	base, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return ""
	}
	switch base {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/mpeg":
		return ".mp3"
	case "audio/ogg":
		return ".ogg"
	}
	if exts, err := mime.ExtensionsByType(base); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
