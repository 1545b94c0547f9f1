package subgraph

import (
	"context"
	"sync"

	"github.com/graphmesh/graphmesh/internal/value"
)

// MockHandler resolves one dispatched document in tests.
type MockHandler func(ctx context.Context, query string, operation string) (value.Value, error)

// Call records a single document dispatched to a mock executor.
type Call struct {
	Query     string
	Operation string
}

// MockExecutor implements Executor with a scripted handler and a call log.
type MockExecutor struct {
	mu      sync.Mutex
	handler MockHandler
	calls   []Call
}

// NewMockExecutor creates a MockExecutor backed by handler.
func NewMockExecutor(handler MockHandler) *MockExecutor {
	return &MockExecutor{handler: handler}
}

// NewMockValueExecutor returns a MockExecutor that always returns val.
func NewMockValueExecutor(val value.Value) *MockExecutor {
	return NewMockExecutor(func(context.Context, string, string) (value.Value, error) {
		return val, nil
	})
}

func (m *MockExecutor) Run(ctx context.Context, query string, operation string, variables map[string]value.Value) (value.Value, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Query: query, Operation: operation})
	m.mu.Unlock()
	return m.handler(ctx, query, operation)
}

// GetCalls returns the documents dispatched so far.
func (m *MockExecutor) GetCalls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}
