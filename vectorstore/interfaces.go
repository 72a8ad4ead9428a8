package vectorstore

import (
	"context"

	"github.com/poiesic/tedrag/core"
)

// Index stores chunk vectors and answers nearest-neighbour queries.
// Implementations must be thread-safe and support concurrent access.
type Index interface {
	// Upsert writes vectors into namespace. A vector whose ID already
	// exists in the namespace replaces the stored record.
	Upsert(ctx context.Context, namespace string, vectors []core.Vector) error

	// Query returns up to topK matches from namespace ordered by
	// descending similarity. Metadata is always included.
	// An empty namespace yields no matches and no error.
	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]core.Match, error)

	// Close releases resources held by the index.
	Close() error
}

// Provisioner prepares the backing index before ingestion.
type Provisioner interface {
	// EnsureIndex creates the index described by spec when it does not
	// exist yet. It reports whether a new index was created.
	EnsureIndex(ctx context.Context, spec IndexSpec) (bool, error)

	// ListIndexes returns the names of existing indexes.
	ListIndexes(ctx context.Context) ([]string, error)
}
