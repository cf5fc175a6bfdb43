package llm

import (
	"context"
	"fmt"
)

// MockClient implements Client for tests. Responses are served in order;
// the last one repeats once the queue is exhausted. Err, when set, is
// returned for every call.
type MockClient struct {
	Responses []string
	Err       error
	Requests  []CompletionRequest
	calls     int
}

func (m *MockClient) Model() string { return "mock" }

func (m *MockClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Responses) == 0 {
		return nil, fmt.Errorf("mock: no responses configured")
	}
	idx := m.calls
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	m.calls++
	return &CompletionResponse{Content: m.Responses[idx], Model: "mock"}, nil
}
