package mock

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/poiesic/specindex/ai"
)

// MockCompleter is a test double for ai.Completer.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, returns Response.
	CompleteFunc func(ctx context.Context, systemPrompt string, messages []ai.Message) (string, error)

	// Response is the canned reply used when CompleteFunc is nil.
	Response string

	callCount atomic.Int64

	mu           sync.Mutex
	lastPrompt   string
	lastMessages []ai.Message
}

// NewMockCompleter creates a mock completer that replies with a fixed answer.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{Response: "mock answer"}
}

// Complete records the request and returns the injected or canned reply.
func (m *MockCompleter) Complete(ctx context.Context, systemPrompt string, messages []ai.Message) (string, error) {
	m.callCount.Add(1)

	m.mu.Lock()
	m.lastPrompt = systemPrompt
	m.lastMessages = append([]ai.Message(nil), messages...)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, systemPrompt, messages)
	}
	return m.Response, nil
}

// CallCount returns the number of times Complete was called.
func (m *MockCompleter) CallCount() int {
	return int(m.callCount.Load())
}

// LastRequest returns the system prompt and messages of the most recent call.
func (m *MockCompleter) LastRequest() (string, []ai.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPrompt, m.lastMessages
}

// Reset clears the call count, recorded request and injected behavior.
func (m *MockCompleter) Reset() {
	m.callCount.Store(0)
	m.CompleteFunc = nil
	m.mu.Lock()
	m.lastPrompt = ""
	m.lastMessages = nil
	m.mu.Unlock()
}
