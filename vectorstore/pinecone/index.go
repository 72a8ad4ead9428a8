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


package pinecone

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"github.com/poiesic/tedrag/core"
	"github.com/poiesic/tedrag/vectorstore"
)

// ErrAPIKeyRequired is returned when no Pinecone API key is configured.
var ErrAPIKeyRequired = errors.New("pinecone api key is required")

// ErrIndexNotReady is returned when the index host is not available in time.
var ErrIndexNotReady = errors.New("pinecone index is not ready")

const (
	defaultReadyTimeout = 2 * time.Minute
	readyPollInterval   = 2 * time.Second
)

// Option configures an Index.
type Option func(*Index) error

// WithLogger sets a custom logger for the index.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Index) error {
		i.logger = logger
		return nil
	}
}

// WithHost skips DescribeIndex and connects to host directly.
func WithHost(host string) Option {
	return func(i *Index) error {
		i.host = host
		return nil
	}
}

// WithReadyTimeout bounds how long EnsureIndex waits for a new index to get a host.
func WithReadyTimeout(d time.Duration) Option {
	return func(i *Index) error {
		if d <= 0 {
			return fmt.Errorf("ready timeout must be positive, got %s", d)
		}
		i.readyTimeout = d
		return nil
	}
}

// Index is a vectorstore.Index backed by a Pinecone serverless index.
type Index struct {
	client       *pinecone.Client
	name         string
	host         string
	readyTimeout time.Duration
	conns        map[string]*pinecone.IndexConnection
	mu           sync.Mutex
	closed       bool
	logger       *slog.Logger
}

var (
	_ vectorstore.Index       = (*Index)(nil)
	_ vectorstore.Provisioner = (*Index)(nil)
)

// New creates a client for the index called name.
func New(apiKey, name string, opts ...Option) (*Index, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}
	if name == "" {
		name = vectorstore.DefaultIndexName
	}

	client, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create pinecone client: %w", err)
	}

	idx := &Index{
		client:       client,
		name:         name,
		readyTimeout: defaultReadyTimeout,
		conns:        make(map[string]*pinecone.IndexConnection),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(idx); err != nil {
			return nil, err
		}
	}
	idx.logger = idx.logger.With("component", "pinecone-index", "index", name)
	return idx, nil
}

// EnsureIndex creates a serverless index for spec unless one with the same name exists.
func (i *Index) EnsureIndex(ctx context.Context, spec vectorstore.IndexSpec) (bool, error) {
	if err := spec.Validate(); err != nil {
		return false, err
	}
	metric, err := toMetric(spec.Metric)
	if err != nil {
		return false, err
	}

	names, err := i.ListIndexes(ctx)
	if err != nil {
		return false, err
	}
	if slices.Contains(names, spec.Name) {
		i.logger.Debug("index already exists", "name", spec.Name)
		return false, nil
	}

	i.logger.Info("creating serverless index", "name", spec.Name, "dimension", spec.Dimension,
		"metric", spec.Metric, "cloud", spec.Cloud, "region", spec.Region)
	_, err = i.client.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
		Name:      spec.Name,
		Dimension: int32(spec.Dimension),
		Metric:    metric,
		Cloud:     pinecone.Cloud(spec.Cloud),
		Region:    spec.Region,
	})
	if err != nil {
		return false, fmt.Errorf("failed to create index %s: %w", spec.Name, err)
	}

	if spec.Name == i.name {
		if _, err := i.waitForHost(ctx); err != nil {
			return true, err
		}
	}
	return true, nil
}

// ListIndexes returns the names of all indexes in the project.
func (i *Index) ListIndexes(ctx context.Context) ([]string, error) {
	indexes, err := i.client.ListIndexes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexes: %w", err)
	}
	names := make([]string, 0, len(indexes))
	for _, index := range indexes {
		names = append(names, index.Name)
	}
	return names, nil
}

// Upsert writes vectors into namespace.
func (i *Index) Upsert(ctx context.Context, namespace string, vectors []core.Vector) error {
	if len(vectors) == 0 {
		return nil
	}

	records := make([]*pinecone.Vector, len(vectors))
	for n := range vectors {
		if err := core.ValidateVector(&vectors[n], 0); err != nil {
			return err
		}
		record, err := toVector(&vectors[n])
		if err != nil {
			return err
		}
		records[n] = record
	}

	conn, err := i.connection(ctx, namespace)
	if err != nil {
		return err
	}
	count, err := conn.UpsertVectors(ctx, records)
	if err != nil {
		i.logger.Error("upsert failed", "namespace", namespace, "count", len(records), "err", err)
		return fmt.Errorf("pinecone upsert failed: %w", err)
	}

	i.logger.Debug("upserted vectors", "namespace", namespace, "count", count)
	return nil
}

// Query returns the topK nearest vectors of namespace with their metadata.
func (i *Index) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]core.Match, error) {
	if topK <= 0 {
		return nil, vectorstore.ErrInvalidTopK
	}

	conn, err := i.connection(ctx, namespace)
	if err != nil {
		return nil, err
	}
	res, err := conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(topK),
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("pinecone query failed: %w", err)
	}
	return fromScored(res.Matches), nil
}

// Close closes every open index connection.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil
	}
	i.closed = true

	var errs []error
	for ns, conn := range i.conns {
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("namespace %s: %w", ns, err))
		}
	}
	clear(i.conns)
	return errors.Join(errs...)
}

func (i *Index) connection(ctx context.Context, namespace string) (*pinecone.IndexConnection, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil, vectorstore.ErrIndexClosed
	}
	if conn, ok := i.conns[namespace]; ok {
		return conn, nil
	}

	if i.host == "" {
		desc, err := i.client.DescribeIndex(ctx, i.name)
		if err != nil {
			return nil, fmt.Errorf("failed to describe index %s: %w", i.name, err)
		}
		if desc.Host == "" {
			return nil, fmt.Errorf("%w: %s has no host", ErrIndexNotReady, i.name)
		}
		i.host = desc.Host
	}

	conn, err := i.client.Index(pinecone.NewIndexConnParams{Host: i.host, Namespace: namespace})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to index %s: %w", i.name, err)
	}
	i.conns[namespace] = conn
	return conn, nil
}

func (i *Index) waitForHost(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, i.readyTimeout)
	defer cancel()

	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()
	for {
		desc, err := i.client.DescribeIndex(ctx, i.name)
		if err == nil && desc.Host != "" && desc.Status != nil && desc.Status.Ready {
			i.mu.Lock()
			i.host = desc.Host
			i.mu.Unlock()
			return desc.Host, nil
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %s: %w", ErrIndexNotReady, i.name, ctx.Err())
		case <-ticker.C:
		}
	}
}

func toMetric(m vectorstore.Metric) (pinecone.IndexMetric, error) {
	switch m {
	case vectorstore.MetricCosine:
		return pinecone.Cosine, nil
	case vectorstore.MetricDotProduct:
		return pinecone.Dotproduct, nil
	case vectorstore.MetricEuclidean:
		return pinecone.Euclidean, nil
	}
	return "", fmt.Errorf("%w: %q", vectorstore.ErrUnsupportedMetric, m)
}
