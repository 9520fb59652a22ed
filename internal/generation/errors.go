package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrGenerationFailed is returned when audio generation fails for any general reason
	ErrGenerationFailed = errors.New("failed to generate audio from text")

	// ErrInvalidResponse is returned when the model response carries no usable audio
	ErrInvalidResponse = errors.New("invalid response from speech model")

	// ErrContentBlocked is returned when the model blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by speech model safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry.
	// The worker itself never retries; the error is recorded on the task.
	ErrTransientFailure = errors.New("transient error during audio generation")

	// ErrInvalidConfig is returned when the generator configuration is invalid
	ErrInvalidConfig = errors.New("invalid generator configuration")

	// ErrEmptyText is returned when there is nothing to speak
	ErrEmptyText = errors.New("text to synthesize is empty")

	// ErrStorageFailed is returned when the artifact could not be stored
	ErrStorageFailed = errors.New("failed to store generated artifact")
)
