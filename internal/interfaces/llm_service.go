package interfaces

import (
	"context"
)

// Message represents a single turn in a model conversation
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// LLMService abstracts a hosted model provider. Chat is implemented by every
// provider; the embedding methods are only implemented by providers with an
// embedding API and return an error otherwise.
type LLMService interface {
	// Chat generates a completion for the given message history
	Chat(ctx context.Context, messages []Message) (string, error)

	// Embed generates an embedding vector for a single text
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embedding vectors for multiple texts in one call.
	// The result has the same length and order as the input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// HealthCheck verifies the provider is reachable
	HealthCheck(ctx context.Context) error

	// Provider returns the provider name ("gemini", "claude")
	Provider() string

	// Close releases resources
	Close() error
}
