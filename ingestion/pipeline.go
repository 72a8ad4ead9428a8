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


package ingestion

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/tedrag/ai"
	"github.com/poiesic/tedrag/chunking"
	"github.com/poiesic/tedrag/core"
	"github.com/poiesic/tedrag/dataset"
	"github.com/poiesic/tedrag/vectorstore"
)

// DefaultBatchSize is the number of buffered vectors that triggers an upsert.
const DefaultBatchSize = 50

// Pipeline chunks, embeds and upserts talks into a vector index.
type Pipeline struct {
	index       vectorstore.Index
	embedder    ai.Embedder
	splitter    chunking.Splitter
	provisioner vectorstore.Provisioner
	spec        vectorstore.IndexSpec
	namespace   string
	batchSize   int
	pool        *ants.Pool
	progressOut io.Writer
	progressInt int
	records     *recordEmbedder
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithSplitter replaces the default recursive splitter.
func WithSplitter(splitter chunking.Splitter) Option {
	return func(p *Pipeline) error {
		if splitter == nil {
			return fmt.Errorf("splitter required")
		}
		p.splitter = splitter
		return nil
	}
}

// WithNamespace sets the namespace vectors are written to.
// Default is vectorstore.DefaultNamespace.
func WithNamespace(namespace string) Option {
	return func(p *Pipeline) error {
		if namespace == "" {
			return fmt.Errorf("namespace must not be empty")
		}
		p.namespace = namespace
		return nil
	}
}

// WithBatchSize sets the buffer size that triggers an upsert.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("batch size must be at least 1, got %d", size)
		}
		p.batchSize = size
		return nil
	}
}

// WithPoolSize sets how many talks are chunked and embedded concurrently.
// Default is 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithProvisioner makes Run call EnsureIndex with spec before processing any talk.
func WithProvisioner(provisioner vectorstore.Provisioner, spec vectorstore.IndexSpec) Option {
	return func(p *Pipeline) error {
		if err := spec.Validate(); err != nil {
			return err
		}
		p.provisioner = provisioner
		p.spec = spec
		return nil
	}
}

// WithProgress enables a progress line on w, refreshed every interval talks.
func WithProgress(w io.Writer, interval int) Option {
	return func(p *Pipeline) error {
		p.progressOut = w
		p.progressInt = interval
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline writing into index.
func NewPipeline(index vectorstore.Index, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	pool, err := ants.NewPool(1)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		index:     index,
		embedder:  embedder,
		namespace: vectorstore.DefaultNamespace,
		batchSize: DefaultBatchSize,
		pool:      pool,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	if p.splitter == nil {
		splitter, err := chunking.NewRecursive()
		if err != nil {
			p.Release()
			return nil, err
		}
		p.splitter = splitter
	}
	p.logger = p.logger.With("component", "ingestion")

	records, err := newRecordEmbedder(p.splitter, p.embedder, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	p.records = records

	return p, nil
}

// IngestFile loads talks from a CSV dataset and runs the pipeline over them.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (*Summary, error) {
	talks, err := dataset.Load(path)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, talks)
}

// Run processes talks in order and returns the run summary.
// An upsert or provisioning failure stops the run; the summary reflects the
// work done up to that point.
func (p *Pipeline) Run(ctx context.Context, talks []core.Talk) (*Summary, error) {
	summary := &Summary{Total: len(talks)}

	if p.provisioner != nil {
		created, err := p.provisioner.EnsureIndex(ctx, p.spec)
		if err != nil {
			p.logger.Error("error provisioning index", "index", p.spec.Name, "err", err)
			return summary, fmt.Errorf("%w: %w", ErrProvisioning, err)
		}
		p.logger.Info("index ready", "index", p.spec.Name, "created", created)
	}

	var progress *ProgressTracker
	if p.progressOut != nil {
		progress = NewProgressTracker(p.progressOut, len(talks), p.progressInt)
		progress.Start()
		defer progress.Finish()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := p.dispatch(ctx, talks)
	buffer := newUpsertBuffer(p.index, p.namespace, p.batchSize)

	for i, ch := range results {
		talk := &talks[i]
		var res recordResult
		select {
		case res = <-ch:
		case <-ctx.Done():
			return summary, ctx.Err()
		}

		switch {
		case res.skipped:
			summary.SkippedEmpty++
			p.logger.Debug("skipping talk without transcript", "talk_id", talk.ID, "title", talk.Title)
		case res.err != nil:
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			summary.Failed++
			summary.Failures = append(summary.Failures, RecordFailure{TalkID: talk.ID, Title: talk.Title, Err: res.err})
			p.logger.Error("error processing talk", "talk_id", talk.ID, "err", res.err)
		default:
			summary.Succeeded++
			summary.Chunks += res.chunks
			buffer.add(res.vectors)
		}

		if progress != nil {
			progress.Advance(len(res.vectors))
		}

		if buffer.full() {
			if err := p.flush(ctx, buffer, summary); err != nil {
				return summary, err
			}
		}
	}

	if err := p.flush(ctx, buffer, summary); err != nil {
		return summary, err
	}

	p.logger.Info("ingestion complete", "talks", summary.Total, "succeeded", summary.Succeeded,
		"skipped", summary.Skipped(), "chunks", summary.Chunks, "upserted", summary.Upserted,
		"batches", summary.Batches)
	return summary, nil
}

// dispatch submits every talk to the worker pool and returns one result
// channel per talk, in input order.
func (p *Pipeline) dispatch(ctx context.Context, talks []core.Talk) []chan recordResult {
	results := make([]chan recordResult, len(talks))
	for i := range results {
		results[i] = make(chan recordResult, 1)
	}

	go func() {
		for i := range talks {
			talk := &talks[i]
			ch := results[i]
			if ctx.Err() != nil {
				ch <- recordResult{err: ctx.Err()}
				continue
			}
			err := p.pool.Submit(func() {
				ch <- p.records.process(ctx, talk)
			})
			if err != nil {
				ch <- recordResult{err: fmt.Errorf("submit talk %s: %w", talk.ID, err)}
			}
		}
	}()

	return results
}

func (p *Pipeline) flush(ctx context.Context, buffer *upsertBuffer, summary *Summary) error {
	pending := buffer.len()
	if pending == 0 {
		return nil
	}

	n, err := buffer.flush(ctx)
	if err != nil {
		p.logger.Error("error upserting batch", "namespace", p.namespace, "vectors", pending, "err", err)
		return fmt.Errorf("upsert %d vectors: %w", pending, err)
	}
	summary.Upserted += n
	summary.Batches++
	p.logger.Info("upserted batch", "namespace", p.namespace, "vectors", n, "batch", summary.Batches)
	return nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
