// Package llm provides the chat completion and embedding capabilities the
// pipeline consumes, with OpenAI-compatible and Anthropic implementations.
package llm

import "context"

// CompletionRequest carries one chat completion call. Temperature and TopP
// are passed through to the provider; MaxTokens of zero falls back to the
// client's configured default.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	TopP         float64
	MaxTokens    int
}

// Client is the chat completion capability. Implementations must fail with a
// classified error (see ClassifyError) rather than panicking; callers never
// assume success.
type Client interface {
	// Complete sends one blocking chat completion and returns the response
	// text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}

// EmbeddingClient is the embedding capability. Every call within one index
// lifetime must return vectors of the same dimensionality.
type EmbeddingClient interface {
	// Embed returns the embedding vector for one input.
	Embed(ctx context.Context, input string) ([]float32, error)

	// EmbedBatch returns one vector per input, in input order.
	EmbedBatch(ctx context.Context, inputs []string) ([][]float32, error)

	// GetModel returns the configured embedding model name.
	GetModel() string
}
