// Package testhelpers provides shared fakes for package and integration tests.
package testhelpers

import (
	"context"
	"errors"
	"sync"

	"github.com/Cyclone1070/aishell/internal/conversation"
)

// ErrScriptExhausted is returned once every scripted reply has been served.
var ErrScriptExhausted = errors.New("mock backend: no scripted reply left")

// Call records one request made to MockBackend.
type Call struct {
	SystemPrompt string
	Messages     []conversation.Message
}

type reply struct {
	text string
	err  error
}

// MockBackend is a scripted provider.Backend. Replies are served in order.
type MockBackend struct {
	mu      sync.Mutex
	replies []reply
	calls   []Call

	// GenerateFunc, when set, replaces the script entirely.
	GenerateFunc func(ctx context.Context, systemPrompt string, messages []conversation.Message) (string, error)
}

// NewMockBackend creates a backend with the given replies queued.
func NewMockBackend(replies ...string) *MockBackend {
	m := &MockBackend{}
	for _, r := range replies {
		m.WithReply(r)
	}
	return m
}

// WithReply queues a text reply.
func (m *MockBackend) WithReply(text string) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, reply{text: text})
	return m
}

// WithError queues an error reply.
func (m *MockBackend) WithError(err error) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, reply{err: err})
	return m
}

// Generate implements provider.Backend.
func (m *MockBackend) Generate(ctx context.Context, systemPrompt string, messages []conversation.Message) (string, error) {
	m.mu.Lock()
	copied := make([]conversation.Message, len(messages))
	copy(copied, messages)
	m.calls = append(m.calls, Call{SystemPrompt: systemPrompt, Messages: copied})
	fn := m.GenerateFunc
	var next *reply
	if fn == nil && len(m.replies) > 0 {
		next = &m.replies[0]
		m.replies = m.replies[1:]
	}
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, systemPrompt, messages)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if next == nil {
		return "", ErrScriptExhausted
	}
	return next.text, next.err
}

// Name implements provider.Backend.
func (m *MockBackend) Name() string {
	return "mock/mock-model"
}

// Calls returns a copy of the recorded calls.
func (m *MockBackend) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}
