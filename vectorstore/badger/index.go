// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/tedrag/core"
	"github.com/poiesic/tedrag/vectorstore"
)

// ErrInvalidNamespace is returned for namespaces that would break key prefixes.
var ErrInvalidNamespace = errors.New("namespace must be non-empty and must not contain ':'")

// Index is a vectorstore.Index backed by BadgerDB.
// Search is a full scan of the namespace scored by cosine similarity.
type Index struct {
	backend     *Backend
	ownsBackend bool
	name        string
	dimension   int
	mu          sync.RWMutex
	closed      bool
	logger      *slog.Logger
}

var (
	_ vectorstore.Index       = (*Index)(nil)
	_ vectorstore.Provisioner = (*Index)(nil)
)

// NewIndex creates an index named name on an open backend.
// If a spec was provisioned earlier its dimension is enforced on writes.
// The caller keeps ownership of the backend.
func NewIndex(backend *Backend, name string) (*Index, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	if name == "" {
		name = vectorstore.DefaultIndexName
	}

	idx := &Index{
		backend: backend,
		name:    name,
		logger:  slog.Default().With("component", "badger-index", "index", name),
	}

	spec, err := idx.loadSpec(name)
	if err != nil {
		return nil, err
	}
	if spec != nil {
		idx.dimension = spec.Dimension
	}
	return idx, nil
}

// Open opens a BadgerDB database and returns an index that owns it.
func Open(path string, inMemory bool, name string) (*Index, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}
	idx, err := NewIndex(backend, name)
	if err != nil {
		backend.Close()
		return nil, err
	}
	idx.ownsBackend = true
	return idx, nil
}

// EnsureIndex stores spec when no index with that name exists.
// An existing index must match the requested dimension and metric.
func (i *Index) EnsureIndex(ctx context.Context, spec vectorstore.IndexSpec) (bool, error) {
	if err := spec.Validate(); err != nil {
		return false, err
	}
	if spec.Metric != vectorstore.MetricCosine {
		return false, fmt.Errorf("%w: badger index supports cosine only, got %q",
			vectorstore.ErrUnsupportedMetric, spec.Metric)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return false, vectorstore.ErrIndexClosed
	}

	existing, err := i.loadSpec(spec.Name)
	if err != nil {
		return false, err
	}
	if existing != nil {
		if existing.Dimension != spec.Dimension || existing.Metric != spec.Metric {
			return false, fmt.Errorf("%w: %s has dimension %d metric %s",
				vectorstore.ErrSpecConflict, existing.Name, existing.Dimension, existing.Metric)
		}
		if spec.Name == i.name {
			i.dimension = existing.Dimension
		}
		return false, nil
	}

	data, err := marshalSpec(&spec)
	if err != nil {
		return false, err
	}
	err = i.backend.Update(func(tx *badger.Txn) error {
		return tx.Set(makeIndexSpecKey(spec.Name), data)
	})
	if err != nil {
		return false, err
	}

	if spec.Name == i.name {
		i.dimension = spec.Dimension
	}
	i.logger.Info("created index", "name", spec.Name, "dimension", spec.Dimension, "metric", spec.Metric)
	return true, nil
}

// ListIndexes returns the names of all provisioned indexes.
func (i *Index) ListIndexes(ctx context.Context) ([]string, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return nil, vectorstore.ErrIndexClosed
	}

	var names []string
	prefix := makeIndexSpecPrefix()
	err := i.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			names = append(names, strings.TrimPrefix(string(iter.Item().Key()), string(prefix)))
		}
		return nil
	})
	return names, err
}

// Upsert writes vectors into namespace, replacing records with the same ID.
func (i *Index) Upsert(ctx context.Context, namespace string, vectors []core.Vector) error {
	if err := validateNamespace(namespace); err != nil {
		return err
	}

	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return vectorstore.ErrIndexClosed
	}

	for n := range vectors {
		if err := core.ValidateVector(&vectors[n], i.dimension); err != nil {
			return err
		}
	}

	err := i.backend.WriteBatch(func(wb *badger.WriteBatch) error {
		for n := range vectors {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := marshalVector(&vectors[n])
			if err != nil {
				return err
			}
			if err := wb.Set(makeVectorKey(namespace, vectors[n].ID), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		i.logger.Error("upsert failed", "namespace", namespace, "count", len(vectors), "err", err)
		return err
	}

	i.logger.Debug("upserted vectors", "namespace", namespace, "count", len(vectors))
	return nil
}

// Query scans namespace and returns the topK most similar vectors.
func (i *Index) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]core.Match, error) {
	if err := validateNamespace(namespace); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return nil, vectorstore.ErrInvalidTopK
	}

	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return nil, vectorstore.ErrIndexClosed
	}
	if i.dimension > 0 && len(vector) != i.dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", core.ErrDimensionMismatch, i.dimension, len(vector))
	}

	var matches []core.Match
	err := i.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeNamespacePrefix(namespace)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var record *core.Vector
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = unmarshalVector(val)
				return err
			})
			if err != nil {
				return err
			}

			matches = append(matches, core.Match{
				ID:       record.ID,
				Metadata: record.Metadata,
				Score:    vectorstore.Cosine(vector, record.Values),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return vectorstore.TopK(matches, topK), nil
}

// Count returns the number of vectors stored in namespace.
func (i *Index) Count(namespace string) (int, error) {
	if err := validateNamespace(namespace); err != nil {
		return 0, err
	}

	count := 0
	err := i.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeNamespacePrefix(namespace)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Close marks the index closed and closes the backend if the index owns it.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil
	}
	i.closed = true
	if i.ownsBackend {
		return i.backend.Close()
	}
	return nil
}

func (i *Index) loadSpec(name string) (*vectorstore.IndexSpec, error) {
	var spec *vectorstore.IndexSpec
	err := i.backend.View(func(tx *badger.Txn) error {
		item, err := tx.Get(makeIndexSpecKey(name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			spec, err = unmarshalSpec(val)
			return err
		})
	})
	return spec, err
}

func validateNamespace(namespace string) error {
	if namespace == "" || strings.Contains(namespace, ":") {
		return fmt.Errorf("%w: %q", ErrInvalidNamespace, namespace)
	}
	return nil
}
