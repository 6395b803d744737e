// Package llmtest provides an in-memory llm.Client for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/jonathan/slideshow-studio/internal/llm"
)

// MockClient implements llm.Client for testing. Requests are recorded in order.
type MockClient struct {
	GenerateFunc func(ctx context.Context, req llm.Request) (string, error)
	GetModelFunc func(tier llm.ModelTier) string
	CloseFunc    func() error

	mu       sync.Mutex
	requests []llm.Request
}

// Respond returns a MockClient that answers every request with body
func Respond(body string) *MockClient {
	return &MockClient{
		GenerateFunc: func(context.Context, llm.Request) (string, error) { return body, nil },
	}
}

// Sequence returns a MockClient that answers requests with bodies in order,
// repeating the last one once exhausted
func Sequence(bodies ...string) *MockClient {
	var (
		mu sync.Mutex
		i  int
	)
	return &MockClient{
		GenerateFunc: func(context.Context, llm.Request) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			if len(bodies) == 0 {
				return "", nil
			}
			body := bodies[min(i, len(bodies)-1)]
			i++
			return body, nil
		},
	}
}

// Fail returns a MockClient whose every request fails with err
func Fail(err error) *MockClient {
	return &MockClient{
		GenerateFunc: func(context.Context, llm.Request) (string, error) { return "", err },
	}
}

// Generate records the request and delegates to GenerateFunc
func (m *MockClient) Generate(ctx context.Context, req llm.Request) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return `{"slides":[]}`, nil
}

// GetModel returns "mock-model" unless GetModelFunc is set
func (m *MockClient) GetModel(tier llm.ModelTier) string {
	if m.GetModelFunc != nil {
		return m.GetModelFunc(tier)
	}
	return "mock-model"
}

// Close delegates to CloseFunc
func (m *MockClient) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Requests returns a copy of the recorded requests
func (m *MockClient) Requests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.Request(nil), m.requests...)
}

// Calls returns the number of recorded requests
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
