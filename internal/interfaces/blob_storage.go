package interfaces

import (
	"context"
)

// BlobStorage stores uploaded document binaries under tenant-prefixed keys.
// Keys look like "<tenant_id>/<document_id>.pdf".
type BlobStorage interface {
	// Save writes data at the given key, overwriting any existing content
	Save(ctx context.Context, key string, data []byte) error

	// Get returns the data stored at the key
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the data at the key. Returns false when the key did
	// not exist. Missing keys are not an error.
	Delete(ctx context.Context, key string) (bool, error)

	// Exists reports whether the key holds data
	Exists(ctx context.Context, key string) (bool, error)

	// DeletePrefix removes every key under the given prefix
	DeletePrefix(ctx context.Context, prefix string) error

	// URLFor returns a retrievable location for the key
	URLFor(key string) string
}
