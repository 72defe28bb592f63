package interfaces

import (
	"context"
)

// EmbeddingService generates vector embeddings with batching and retry on
// top of an LLM provider.
type EmbeddingService interface {
	// EmbedBatch embeds many texts, batching internally. The result has the
	// same length and order as the input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a single query text
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EstimateTokens returns a rough token count for budgeting
	EstimateTokens(text string) int

	// Dimension returns the embedding vector dimensionality
	Dimension() int
}
