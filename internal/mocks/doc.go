// Package mocks provides centralized mock implementations for testing.
//
// Mocks follow one pattern: a struct with an optional function field per
// interface method. When the field is nil the mock falls back to a simple
// in-memory behaviour, so most tests only override the call they care about.
//
//	tasks := mocks.NewMockTaskStore()
//	tasks.FailFn = func(ctx context.Context, id uuid.UUID, msg string) error {
//	    return errors.New("store unavailable")
//	}
package mocks
