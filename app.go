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


package tedrag

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/tedrag/ai"
	"github.com/poiesic/tedrag/ai/openai"
	"github.com/poiesic/tedrag/chunking"
	"github.com/poiesic/tedrag/config"
	"github.com/poiesic/tedrag/ingestion"
	"github.com/poiesic/tedrag/rag"
	"github.com/poiesic/tedrag/server"
	"github.com/poiesic/tedrag/vectorstore"
	"github.com/poiesic/tedrag/vectorstore/badger"
	"github.com/poiesic/tedrag/vectorstore/chromem"
	"github.com/poiesic/tedrag/vectorstore/pinecone"
)

// App wires the configured index, AI provider and splitter together.
type App struct {
	config       *config.Config
	index        vectorstore.Index
	ownsIndex    bool
	provisioner  vectorstore.Provisioner
	provider     ai.AIProvider
	ownsProvider bool
	splitter     *chunking.Recursive
	baseLogger   *slog.Logger
	logger       *slog.Logger
}

// AppOption configures an App.
type AppOption func(*appOptions)

type appOptions struct {
	provider ai.AIProvider
	index    vectorstore.Index
	logger   *slog.Logger
}

// WithProvider uses provider instead of building one from the config.
// The caller keeps ownership of provider.
func WithProvider(provider ai.AIProvider) AppOption {
	return func(o *appOptions) {
		o.provider = provider
	}
}

// WithIndex uses index instead of opening the configured backend.
// The caller keeps ownership of index.
func WithIndex(index vectorstore.Index) AppOption {
	return func(o *appOptions) {
		o.index = index
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) AppOption {
	return func(o *appOptions) {
		o.logger = logger
	}
}

// NewApp builds an App from cfg. A nil cfg uses config.Default().
func NewApp(cfg *config.Config, opts ...AppOption) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	options := &appOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	splitter, err := chunking.NewRecursive(
		chunking.WithChunkSize(cfg.Chunking.ChunkSize),
		chunking.WithChunkOverlap(cfg.Chunking.ChunkOverlap),
	)
	if err != nil {
		return nil, err
	}

	app := &App{
		config:     cfg,
		splitter:   splitter,
		baseLogger: options.logger,
		logger:     options.logger.With("component", "app"),
	}

	if options.provider != nil {
		app.provider = options.provider
	} else {
		provider, err := openai.NewProvider(cfg.AIConfig())
		if err != nil {
			return nil, err
		}
		app.provider = provider
		app.ownsProvider = true
	}

	if options.index != nil {
		app.index = options.index
	} else {
		index, err := OpenIndex(cfg, options.logger)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.index = index
		app.ownsIndex = true
	}
	if p, ok := app.index.(vectorstore.Provisioner); ok {
		app.provisioner = p
	}

	return app, nil
}

// OpenIndex opens the index backend selected in cfg.
func OpenIndex(cfg *config.Config, logger *slog.Logger) (vectorstore.Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ic := cfg.Index

	switch ic.Backend {
	case config.BackendPinecone:
		opts := []pinecone.Option{pinecone.WithLogger(logger)}
		if ic.Host != "" {
			opts = append(opts, pinecone.WithHost(ic.Host))
		}
		if ic.ReadyTimeout > 0 {
			opts = append(opts, pinecone.WithReadyTimeout(ic.ReadyTimeout))
		}
		return pinecone.New(ic.APIKey, ic.Name, opts...)
	case config.BackendChromem:
		if ic.InMemory {
			return chromem.New(ic.Name, chromem.WithLogger(logger))
		}
		return chromem.NewPersistent(ic.Path, ic.Name, chromem.WithLogger(logger))
	case config.BackendBadger:
		return badger.Open(ic.Path, ic.InMemory, ic.Name)
	}
	return nil, fmt.Errorf("unknown index backend %q", ic.Backend)
}

// Close releases the provider and index if the App created them.
func (a *App) Close() error {
	var errs []error
	if a.ownsProvider && a.provider != nil {
		if err := a.provider.Close(); err != nil {
			a.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	if a.ownsIndex && a.index != nil {
		if err := a.index.Close(); err != nil {
			a.logger.Error("error closing index", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Config returns the configuration the App was built from.
func (a *App) Config() *config.Config {
	return a.config
}

// Index returns the vector index.
func (a *App) Index() vectorstore.Index {
	return a.index
}

// Provider returns the AI provider.
func (a *App) Provider() ai.AIProvider {
	return a.provider
}

// IndexSpec returns the spec used to provision the index.
func (a *App) IndexSpec() vectorstore.IndexSpec {
	return a.config.IndexSpec()
}

// NewIngestionPipeline creates a pipeline configured from the App's settings.
// opts are applied after the defaults and may override them.
func (a *App) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	defaults := []ingestion.Option{
		ingestion.WithSplitter(a.splitter),
		ingestion.WithNamespace(a.config.Index.Namespace),
		ingestion.WithBatchSize(a.config.Ingestion.BatchSize),
		ingestion.WithPoolSize(a.config.Ingestion.Workers),
		ingestion.WithLogger(a.baseLogger),
	}
	if a.provisioner != nil {
		defaults = append(defaults, ingestion.WithProvisioner(a.provisioner, a.IndexSpec()))
	}
	return ingestion.NewPipeline(a.index, a.provider.Embedder(), append(defaults, opts...)...)
}

// NewService creates a query service configured from the App's settings.
func (a *App) NewService(opts ...rag.Option) (*rag.Service, error) {
	defaults := []rag.Option{
		rag.WithNamespace(a.config.Index.Namespace),
		rag.WithTopK(a.config.Retrieval.TopK),
		rag.WithChunkSettings(a.splitter.ChunkSize(), a.splitter.ChunkOverlap()),
		rag.WithLogger(a.baseLogger),
	}
	return rag.NewService(a.index, a.provider, append(defaults, opts...)...)
}

// NewServer creates an HTTP server around a new query service.
func (a *App) NewServer(opts ...server.Option) (*server.Server, error) {
	service, err := a.NewService()
	if err != nil {
		return nil, err
	}
	defaults := []server.Option{server.WithLogger(a.baseLogger)}
	return server.New(a.config.ServerConfig(), service, append(defaults, opts...)...)
}
