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


package chromem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/poiesic/tedrag/core"
	"github.com/poiesic/tedrag/vectorstore"
)

const (
	namespaceSeparator = "/"
	metaDimension      = "dimension"
	metaMetric         = "metric"
)

// ErrEmbeddingRequired is returned when a document reaches chromem without a precomputed embedding.
var ErrEmbeddingRequired = errors.New("embeddings must be computed before upsert")

// ErrInvalidNamespace is returned for namespaces that would collide with collection names.
var ErrInvalidNamespace = errors.New("namespace must be non-empty and must not contain '/'")

// Option configures an Index.
type Option func(*Index) error

// WithLogger sets a custom logger for the index.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Index) error {
		i.logger = logger
		return nil
	}
}

// WithConcurrency sets how many goroutines chromem uses when adding documents.
func WithConcurrency(n int) Option {
	return func(i *Index) error {
		if n < 1 {
			return fmt.Errorf("concurrency must be at least 1, got %d", n)
		}
		i.concurrency = n
		return nil
	}
}

// Index is a vectorstore.Index backed by a chromem-go database.
type Index struct {
	db          *chromem.DB
	name        string
	dimension   int
	specs       map[string]vectorstore.IndexSpec
	concurrency int
	mu          sync.RWMutex
	closed      bool
	logger      *slog.Logger
}

var (
	_ vectorstore.Index       = (*Index)(nil)
	_ vectorstore.Provisioner = (*Index)(nil)
)

// New creates an index named name in a fresh in-memory database.
func New(name string, opts ...Option) (*Index, error) {
	return newIndex(chromem.NewDB(), name, opts...)
}

// NewPersistent creates an index named name in a database persisted under path.
// Existing collections found at path are loaded.
func NewPersistent(path string, name string, opts ...Option) (*Index, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open chromem database at %s: %w", path, err)
	}
	return newIndex(db, name, opts...)
}

func newIndex(db *chromem.DB, name string, opts ...Option) (*Index, error) {
	if name == "" {
		name = vectorstore.DefaultIndexName
	}
	idx := &Index{
		db:          db,
		name:        name,
		specs:       make(map[string]vectorstore.IndexSpec),
		concurrency: runtime.NumCPU(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(idx); err != nil {
			return nil, err
		}
	}
	idx.logger = idx.logger.With("component", "chromem-index", "index", name)
	return idx, nil
}

// EnsureIndex creates the marker collection for spec if it does not exist.
func (i *Index) EnsureIndex(ctx context.Context, spec vectorstore.IndexSpec) (bool, error) {
	if err := spec.Validate(); err != nil {
		return false, err
	}
	if spec.Metric != vectorstore.MetricCosine {
		return false, fmt.Errorf("%w: chromem supports cosine only, got %q",
			vectorstore.ErrUnsupportedMetric, spec.Metric)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return false, vectorstore.ErrIndexClosed
	}

	if existing, ok := i.specs[spec.Name]; ok {
		if existing.Dimension != spec.Dimension || existing.Metric != spec.Metric {
			return false, fmt.Errorf("%w: %s has dimension %d metric %s",
				vectorstore.ErrSpecConflict, existing.Name, existing.Dimension, existing.Metric)
		}
		return false, nil
	}

	created := i.db.GetCollection(spec.Name, refuseEmbedding) == nil
	meta := map[string]string{
		metaDimension: strconv.Itoa(spec.Dimension),
		metaMetric:    string(spec.Metric),
	}
	if _, err := i.db.GetOrCreateCollection(spec.Name, meta, refuseEmbedding); err != nil {
		return false, fmt.Errorf("failed to create collection %s: %w", spec.Name, err)
	}

	i.specs[spec.Name] = spec
	if spec.Name == i.name {
		i.dimension = spec.Dimension
	}
	if created {
		i.logger.Info("created index", "name", spec.Name, "dimension", spec.Dimension)
	}
	return created, nil
}

// ListIndexes returns the names of provisioned indexes in sorted order.
func (i *Index) ListIndexes(ctx context.Context) ([]string, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return nil, vectorstore.ErrIndexClosed
	}

	var names []string
	for name := range i.db.ListCollections() {
		if !strings.Contains(name, namespaceSeparator) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Upsert adds vectors to the namespace collection. chromem replaces documents with the same ID.
func (i *Index) Upsert(ctx context.Context, namespace string, vectors []core.Vector) error {
	if err := validateNamespace(namespace); err != nil {
		return err
	}

	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return vectorstore.ErrIndexClosed
	}
	if len(vectors) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(vectors))
	for n := range vectors {
		if err := core.ValidateVector(&vectors[n], i.dimension); err != nil {
			return err
		}
		docs[n] = toDocument(&vectors[n])
	}

	collection, err := i.db.GetOrCreateCollection(i.collectionName(namespace), nil, refuseEmbedding)
	if err != nil {
		return fmt.Errorf("failed to open namespace %s: %w", namespace, err)
	}
	if err := collection.AddDocuments(ctx, docs, i.concurrency); err != nil {
		i.logger.Error("upsert failed", "namespace", namespace, "count", len(docs), "err", err)
		return err
	}

	i.logger.Debug("upserted vectors", "namespace", namespace, "count", len(docs))
	return nil
}

// Query returns the topK nearest documents of namespace.
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

	collection := i.db.GetCollection(i.collectionName(namespace), refuseEmbedding)
	if collection == nil {
		return nil, nil
	}
	// chromem rejects requests for more results than the collection holds.
	n := min(topK, collection.Count())
	if n == 0 {
		return nil, nil
	}

	results, err := collection.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query failed: %w", err)
	}

	matches := make([]core.Match, len(results))
	for n, res := range results {
		matches[n] = fromResult(res)
	}
	vectorstore.SortMatches(matches)
	return matches, nil
}

// Count returns the number of documents stored in namespace.
func (i *Index) Count(namespace string) int {
	collection := i.db.GetCollection(i.collectionName(namespace), refuseEmbedding)
	if collection == nil {
		return 0
	}
	return collection.Count()
}

// Close marks the index closed. Persistent databases write through on every
// change, so there is nothing to flush.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closed = true
	return nil
}

func (i *Index) collectionName(namespace string) string {
	return i.name + namespaceSeparator + namespace
}

func toDocument(v *core.Vector) chromem.Document {
	return chromem.Document{
		ID:        v.ID,
		Metadata:  v.Metadata.ToMap(),
		Embedding: v.Values,
		Content:   v.Metadata.Text,
	}
}

func fromResult(res chromem.Result) core.Match {
	meta := core.MetadataFromMap(res.Metadata)
	if meta.Text == "" {
		meta.Text = res.Content
	}
	return core.Match{
		ID:       res.ID,
		Metadata: meta,
		Score:    res.Similarity,
	}
}

func refuseEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, ErrEmbeddingRequired
}

func validateNamespace(namespace string) error {
	if namespace == "" || strings.Contains(namespace, namespaceSeparator) {
		return fmt.Errorf("%w: %q", ErrInvalidNamespace, namespace)
	}
	return nil
}
