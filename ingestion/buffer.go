package ingestion

import (
	"context"

	"github.com/poiesic/tedrag/core"
	"github.com/poiesic/tedrag/vectorstore"
)

// upsertBuffer accumulates vectors across talks until a flush.
type upsertBuffer struct {
	index     vectorstore.Index
	namespace string
	threshold int
	vectors   []core.Vector
}

func newUpsertBuffer(index vectorstore.Index, namespace string, threshold int) *upsertBuffer {
	return &upsertBuffer{
		index:     index,
		namespace: namespace,
		threshold: threshold,
	}
}

// add appends the complete vector set of one talk.
func (b *upsertBuffer) add(vectors []core.Vector) {
	b.vectors = append(b.vectors, vectors...)
}

// full reports whether the buffer has reached the flush threshold.
func (b *upsertBuffer) full() bool {
	return len(b.vectors) >= b.threshold
}

func (b *upsertBuffer) len() int {
	return len(b.vectors)
}

// flush writes every buffered vector with a single Upsert and empties the buffer.
// On error the buffer keeps its contents.
func (b *upsertBuffer) flush(ctx context.Context) (int, error) {
	if len(b.vectors) == 0 {
		return 0, nil
	}
	if err := b.index.Upsert(ctx, b.namespace, b.vectors); err != nil {
		return 0, err
	}
	n := len(b.vectors)
	b.vectors = nil
	return n, nil
}
