package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockClient is an LLMClient for testing.
type MockClient struct {
	// Configurable behavior
	Latency      time.Duration
	ShouldFail   bool
	FailAfter    int // Fail after N requests (0 = never)
	ResponseText string
	ResponseJSON json.RawMessage

	// State
	requestCount atomic.Int64
}

// NewMockClient creates a new mock client with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		ResponseText: "mock response",
	}
}

// Name returns the client identifier.
func (m *MockClient) Name() string {
	return MockClientName
}

// RequestCount returns the number of Chat calls made.
func (m *MockClient) RequestCount() int64 {
	return m.requestCount.Load()
}

// Chat returns the configured response, honoring latency and failure settings.
func (m *MockClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	count := m.requestCount.Add(1)

	if m.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Latency):
		}
	}

	if m.ShouldFail {
		return nil, fmt.Errorf("mock failure")
	}
	if m.FailAfter > 0 && count > int64(m.FailAfter) {
		return nil, fmt.Errorf("mock failure after %d requests", m.FailAfter)
	}

	content := m.ResponseText
	if req.JSONOutput && len(m.ResponseJSON) > 0 {
		content = string(m.ResponseJSON)
	}

	result := &ChatResult{
		Content:   content,
		Provider:  MockClientName,
		ModelUsed: req.Model,
		RequestID: req.RequestID,
	}
	if req.JSONOutput {
		if parsed, err := ParseStructured(content); err == nil {
			result.ParsedJSON = parsed
		}
	}
	return result, nil
}

// Verify interface
var _ LLMClient = (*MockClient)(nil)
