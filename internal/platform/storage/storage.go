package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/phrazzld/scry-worker/internal/config"
	"github.com/phrazzld/scry-worker/internal/generation"
)

// Supported backends.
const (
	BackendMinIO = "minio"
	BackendAzure = "azblob"
)

// ErrUnknownBackend is returned by New for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown storage backend")

// New creates the artifact store selected by cfg.Backend.
func New(cfg config.StorageConfig, logger *slog.Logger) (generation.ArtifactStore, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	switch cfg.Backend {
	case BackendMinIO:
		return NewMinIOStore(cfg, logger)
	case BackendAzure:
		return NewAzureStore(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// joinURL appends escaped path segments to base.
func joinURL(base string, segments ...string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	return u.JoinPath(segments...).String(), nil
}

// keySegments splits an object key on "/" so each part is escaped on its own.
func keySegments(key string) []string {
	return strings.Split(strings.Trim(key, "/"), "/")
}

func wrapPut(backend, key string, err error) error {
	return fmt.Errorf("%w: %s put %q: %v", generation.ErrStorageFailed, backend, key, err)
}
