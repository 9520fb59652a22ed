package gemini

import "errors"

// Error definitions for the gemini package.
var (
	// ErrUnsupportedAudio is returned when the model answers with an audio
	// encoding the synthesizer cannot package.
	ErrUnsupportedAudio = errors.New("unsupported audio encoding")
)
