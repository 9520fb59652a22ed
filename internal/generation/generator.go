package generation

import (
	"context"
)

// Request describes one piece of audio to generate.
type Request struct {
	// Key names the artifact; the same key always maps to the same object,
	// so a repeated generation overwrites rather than duplicates.
	Key string

	// Text is spoken verbatim.
	Text string

	// Voice optionally overrides the synthesizer's default voice.
	Voice string
}

// Artifact is a stored generation result.
type Artifact struct {
	URL         string
	ContentType string
	Size        int64
}

// AudioGenerator defines the boundary between the worker and the external
// Generation Service. Implementations are called at most once per task
// invocation and do not retry.
type AudioGenerator interface {
	Generate(ctx context.Context, req Request) (*Artifact, error)
}

// Audio is raw synthesized audio.
type Audio struct {
	Data     []byte
	MIMEType string
}

// Synthesizer converts text to audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) (*Audio, error)
}

// ArtifactStore persists generated bytes under a key and returns a URL that
// readers of the target entity can fetch.
type ArtifactStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}
