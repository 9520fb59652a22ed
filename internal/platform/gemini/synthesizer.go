package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/scry-worker/internal/config"
	"github.com/phrazzld/scry-worker/internal/generation"
	"github.com/phrazzld/scry-worker/internal/platform/logger"
	"google.golang.org/genai"
)

// AudioModality is the response modality requested from speech models.
const AudioModality = "AUDIO"

// contentGenerator is the part of the genai client the synthesizer uses.
// *genai.Models satisfies it.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Synthesizer implements generation.Synthesizer with a Gemini TTS model.
type Synthesizer struct {
	models       contentGenerator
	model        string
	defaultVoice string
	logger       *slog.Logger
}

var _ generation.Synthesizer = (*Synthesizer)(nil)

// NewSynthesizer creates a Synthesizer backed by the Gemini API.
func NewSynthesizer(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Synthesizer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if err := validateConfig(ctx, logger, cfg); err != nil {
		return nil, err
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.TimeoutSeconds > 0 {
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		clientConfig.HTTPOptions.Timeout = &timeout
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		logger.ErrorContext(ctx, "failed to create Gemini client", "error", err)
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return newSynthesizer(ctx, client.Models, logger, cfg)
}

func newSynthesizer(
	ctx context.Context,
	models contentGenerator,
	logger *slog.Logger,
	cfg config.LLMConfig,
) (*Synthesizer, error) {
	if models == nil {
		return nil, fmt.Errorf("%w: content generator cannot be nil", generation.ErrInvalidConfig)
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if err := validateConfig(ctx, logger, cfg); err != nil {
		return nil, err
	}
	return &Synthesizer{
		models:       models,
		model:        cfg.ModelName,
		defaultVoice: cfg.VoiceName,
		logger:       logger.With("component", "gemini_synthesizer", "model", cfg.ModelName),
	}, nil
}

// Synthesize speaks text with the given voice, or the configured default
// when voice is empty. It makes exactly one model call.
func (s *Synthesizer) Synthesize(ctx context.Context, text, voice string) (*generation.Audio, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if strings.TrimSpace(text) == "" {
		return nil, generation.ErrEmptyText
	}
	if voice == "" {
		voice = s.defaultVoice
	}

	log.DebugContext(ctx, "calling speech model", "voice", voice, "text_length", len(text))

	resp, err := s.models.GenerateContent(ctx, s.model, genai.Text(text), speechConfig(voice))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctxErr)
		}
		log.ErrorContext(ctx, "speech model call failed", "error", err)
		return nil, fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	blob, err := audioBlob(resp)
	if err != nil {
		log.WarnContext(ctx, "speech model returned no usable audio", "error", err)
		return nil, err
	}

	data, mimeType, err := packageAudio(blob.Data, blob.MIMEType)
	if err != nil {
		return nil, err
	}

	log.InfoContext(ctx, "speech synthesized",
		"voice", voice,
		"source_mime_type", blob.MIMEType,
		"bytes", len(data))
	return &generation.Audio{Data: data, MIMEType: mimeType}, nil
}

func speechConfig(voice string) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseModalities: []string{AudioModality},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}
}

// audioBlob extracts the first inline audio part of the first candidate.
func audioBlob(resp *genai.GenerateContentResponse) (*genai.Blob, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates", generation.ErrInvalidResponse)
	}

	cand := resp.Candidates[0]
	if cand == nil {
		return nil, fmt.Errorf("%w: nil candidate", generation.ErrInvalidResponse)
	}
	switch cand.FinishReason {
	case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent:
		return nil, fmt.Errorf("%w: finish reason %s", generation.ErrContentBlocked, cand.FinishReason)
	}
	if cand.Content == nil {
		return nil, fmt.Errorf("%w: empty content", generation.ErrInvalidResponse)
	}

	for _, part := range cand.Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		if strings.HasPrefix(strings.ToLower(part.InlineData.MIMEType), "audio/") {
			return part.InlineData, nil
		}
	}
	return nil, fmt.Errorf("%w: no audio part", generation.ErrInvalidResponse)
}
