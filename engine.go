// Copyright 2025 Evidentia Labs
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


package grounder

import (
	"context"
	"log/slog"

	"github.com/evidentia/grounder/ai"
	"github.com/evidentia/grounder/ai/openai"
	"github.com/evidentia/grounder/core"
	"github.com/evidentia/grounder/index"
	"github.com/evidentia/grounder/index/badger"
	"github.com/evidentia/grounder/query"
)

// Engine is the top-level facade: a chunk store with hybrid indexes, an AI
// provider, and the query orchestrator wired over them.
type Engine struct {
	store        *badger.ChunkStore
	provider     ai.Provider
	orchestrator *query.Orchestrator
	ownsProvider bool
	logger       *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig    *ai.Config
	queryConfig query.Config
	graph       index.Backend
	logger      *slog.Logger
}

// WithAIConfig overrides the AI provider configuration.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithQueryConfig overrides the orchestration tunables.
func WithQueryConfig(config query.Config) EngineOption {
	return func(o *engineOptions) {
		o.queryConfig = config
	}
}

// WithGraphBackend adds an optional third retriever to the pipeline.
func WithGraphBackend(backend index.Backend) EngineOption {
	return func(o *engineOptions) {
		o.graph = backend
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Open creates an engine over a BadgerDB store at filePath, with an
// OpenAI-compatible provider built from the AI config. The vector index
// enforces the config's embedding dimension.
func Open(filePath string, opts ...EngineOption) (*Engine, error) {
	options := applyEngineOptions(opts)

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		return nil, err
	}

	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		provider.Close()
		return nil, err
	}

	store, err := badger.NewChunkStore(backend)
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	engine, err := newEngine(store, provider, options.aiConfig.EmbeddingDimensions, options)
	if err != nil {
		provider.Close()
		store.Close()
		return nil, err
	}
	engine.ownsProvider = true

	return engine, nil
}

// NewEngine creates an engine over an existing store and provider. The
// caller keeps ownership of the provider; Close will not touch it. dims is
// the embedding dimension the vector index enforces.
func NewEngine(store *badger.ChunkStore, provider ai.Provider, dims int, opts ...EngineOption) (*Engine, error) {
	if provider == nil {
		return nil, query.ErrProviderRequired
	}
	return newEngine(store, provider, dims, applyEngineOptions(opts))
}

func applyEngineOptions(opts []EngineOption) *engineOptions {
	options := &engineOptions{
		aiConfig:    ai.DefaultConfig(),
		queryConfig: query.DefaultConfig(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

func newEngine(store *badger.ChunkStore, provider ai.Provider, dims int, options *engineOptions) (*Engine, error) {
	vector, err := badger.NewVectorIndex(store, dims)
	if err != nil {
		return nil, err
	}
	text, err := badger.NewTextIndex(store)
	if err != nil {
		return nil, err
	}

	orchestratorOpts := []query.Option{
		query.WithConfig(options.queryConfig),
		query.WithLogger(options.logger),
	}
	if options.graph != nil {
		orchestratorOpts = append(orchestratorOpts, query.WithGraphBackend(options.graph))
	}

	orchestrator, err := query.NewOrchestrator(vector, text, provider, orchestratorOpts...)
	if err != nil {
		return nil, err
	}

	return &Engine{
		store:        store,
		provider:     provider,
		orchestrator: orchestrator,
		logger:       options.logger,
	}, nil
}

// Query answers a question for the given access context.
func (e *Engine) Query(ctx context.Context, question string, accessCtx core.AccessContext, options core.QueryOptions) (*core.Answer, error) {
	return e.orchestrator.Run(ctx, question, accessCtx, options)
}

// QueryWithMonitor answers a question, reporting pipeline progress to the
// monitor.
func (e *Engine) QueryWithMonitor(ctx context.Context, question string, accessCtx core.AccessContext, options core.QueryOptions, monitor query.Monitor) (*core.Answer, error) {
	return e.orchestrator.RunWithMonitor(ctx, question, accessCtx, options, monitor)
}

// Store exposes the chunk store for ingestion and seeding.
func (e *Engine) Store() *badger.ChunkStore {
	return e.store
}

// Provider exposes the AI provider, mainly so callers can embed chunks
// with the same model the engine queries with.
func (e *Engine) Provider() ai.Provider {
	return e.provider
}

// Close releases the orchestrator's worker pool and closes the store. The
// provider is closed only when the engine created it.
func (e *Engine) Close() error {
	e.orchestrator.Release()

	if e.ownsProvider {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
		}
	}

	if err := e.store.Close(); err != nil {
		e.logger.Error("error closing chunk store", "err", err)
		return err
	}
	return nil
}
