package llm

import (
	"context"
	"sync"
)

// MockClient is a test double for the chat completion capability.
// Set the function fields to control behavior; nil fields return zero values.
type MockClient struct {
	// CompleteFunc is called when Complete is invoked.
	CompleteFunc func(ctx context.Context, req CompletionRequest) (string, error)

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	// Endpoint is returned by GetEndpoint. Defaults to "http://mock-endpoint".
	Endpoint string

	mu sync.Mutex

	// CompleteCalls counts invocations for verification.
	CompleteCalls int

	// Requests records every request for assertion on prompts and presets.
	Requests []CompletionRequest
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	m.mu.Lock()
	m.CompleteCalls++
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return "", nil
}

func (m *MockClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

func (m *MockClient) GetEndpoint() string {
	if m.Endpoint == "" {
		return "http://mock-endpoint"
	}
	return m.Endpoint
}

// Reset clears call tracking.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteCalls = 0
	m.Requests = nil
}

// MockEmbeddingClient is a test double for the embedding capability.
type MockEmbeddingClient struct {
	// EmbedFunc is called when Embed is invoked.
	// If nil, returns a fixed 4-dimensional vector.
	EmbedFunc func(ctx context.Context, input string) ([]float32, error)

	// EmbedBatchFunc is called when EmbedBatch is invoked.
	// If nil, maps EmbedFunc (or the default) over the inputs.
	EmbedBatchFunc func(ctx context.Context, inputs []string) ([][]float32, error)

	// Model is returned by GetModel. Defaults to "mock-embedding".
	Model string

	mu sync.Mutex

	// EmbedCalls counts single-input invocations.
	EmbedCalls int

	// EmbedBatchCalls counts batch invocations.
	EmbedBatchCalls int
}

var _ EmbeddingClient = (*MockEmbeddingClient)(nil)

func (m *MockEmbeddingClient) Embed(ctx context.Context, input string) ([]float32, error) {
	m.mu.Lock()
	m.EmbedCalls++
	m.mu.Unlock()

	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, input)
	}
	return []float32{0, 0, 0, 0}, nil
}

func (m *MockEmbeddingClient) EmbedBatch(ctx context.Context, inputs []string) ([][]float32, error) {
	m.mu.Lock()
	m.EmbedBatchCalls++
	m.mu.Unlock()

	if m.EmbedBatchFunc != nil {
		return m.EmbedBatchFunc(ctx, inputs)
	}

	out := make([][]float32, 0, len(inputs))
	for _, input := range inputs {
		vec, err := m.Embed(ctx, input)
		if err != nil {
			return nil, err
		}
		out = append(out, vec)
	}
	return out, nil
}

func (m *MockEmbeddingClient) GetModel() string {
	if m.Model == "" {
		return "mock-embedding"
	}
	return m.Model
}

// Reset clears call tracking.
func (m *MockEmbeddingClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EmbedCalls = 0
	m.EmbedBatchCalls = 0
}
