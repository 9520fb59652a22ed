package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/scry-worker/internal/generation"
)

// MockAudioGenerator implements generation.AudioGenerator for testing.
type MockAudioGenerator struct {
	// GenerateFn allows test cases to mock the Generate behavior
	GenerateFn func(ctx context.Context, req generation.Request) (*generation.Artifact, error)

	// URLPrefix builds the default artifact URL as URLPrefix + req.Key + ".wav"
	URLPrefix string

	mu       sync.Mutex
	requests []generation.Request
}

// Generate implements generation.AudioGenerator.
func (m *MockAudioGenerator) Generate(ctx context.Context, req generation.Request) (*generation.Artifact, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.GenerateFn != nil {
		return m.GenerateFn(ctx, req)
	}
	return &generation.Artifact{
		URL:         m.URLPrefix + req.Key + ".wav",
		ContentType: "audio/wav",
		Size:        int64(len(req.Text)),
	}, nil
}

// Calls returns the number of Generate calls.
func (m *MockAudioGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of every request received.
func (m *MockAudioGenerator) Requests() []generation.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]generation.Request(nil), m.requests...)
}
