package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-worker/internal/config"
	"github.com/phrazzld/scry-worker/internal/generation"
)

// validateConfig checks the settings a synthesizer cannot run without.
func validateConfig(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) error {
	if cfg.GeminiAPIKey == "" {
		logger.ErrorContext(ctx, "missing gemini API key")
		return fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		logger.ErrorContext(ctx, "missing speech model name")
		return fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.VoiceName == "" {
		logger.ErrorContext(ctx, "missing default voice name")
		return fmt.Errorf("%w: voice name cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.TimeoutSeconds < 0 {
		// Zero leaves the SDK default in place.
		logger.WarnContext(ctx, "negative LLM timeout, using SDK default",
			"value", cfg.TimeoutSeconds)
	}
	return nil
}
