package interfaces

import (
	"context"
)

// ChunkPayload is the metadata stored alongside every vector point
type ChunkPayload struct {
	DocumentID string `json:"document_id"`
	TenantID   string `json:"tenant_id"`
	PageNumber int    `json:"page_number"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
	Filename   string `json:"filename"`
}

// VectorPoint is one embedded chunk ready for upsert
type VectorPoint struct {
	ID      string
	Vector  []float32
	Payload ChunkPayload
}

// VectorMatch is one search hit, highest-scoring first
type VectorMatch struct {
	ID      string
	Score   float32
	Payload ChunkPayload
}

// VectorIndex stores and searches embeddings in per-tenant namespaces.
// A namespace never returns another tenant's points.
type VectorIndex interface {
	// EnsureNamespace creates the tenant's namespace if it does not exist
	EnsureNamespace(ctx context.Context, tenantID string) error

	// Upsert writes points into the tenant's namespace, overwriting points
	// with the same ID. A missing namespace is created and the write retried.
	Upsert(ctx context.Context, tenantID string, points []VectorPoint) error

	// Search returns up to limit matches in descending score order.
	// A scoreThreshold of 0 or less disables filtering. Searching a missing
	// namespace returns no matches, not an error.
	Search(ctx context.Context, tenantID string, vector []float32, limit int, scoreThreshold float32) ([]VectorMatch, error)

	// DeleteByDocument removes all points belonging to a document. Deleting
	// from a missing namespace is a no-op.
	DeleteByDocument(ctx context.Context, tenantID, documentID string) error

	// DeleteNamespace removes the tenant's namespace entirely. Idempotent.
	DeleteNamespace(ctx context.Context, tenantID string) error
}
