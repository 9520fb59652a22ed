package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/scry-worker/internal/notify"
)

// MockNotifier records asynchronous dispatch requests.
type MockNotifier struct {
	mu       sync.Mutex
	requests []notify.Request
}

// DispatchAsync implements task.Notifier.
func (m *MockNotifier) DispatchAsync(_ context.Context, req notify.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
}

// Requests returns a copy of every request received.
func (m *MockNotifier) Requests() []notify.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notify.Request(nil), m.requests...)
}
