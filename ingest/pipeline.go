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


package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/evidentia/grounder/ai"
	"github.com/evidentia/grounder/core"
)

// embedBatchSize is how many chunks one worker embeds per call.
const embedBatchSize = 16

// ChunkWriter is the storage surface the pipeline needs.
// *badger.ChunkStore satisfies it.
type ChunkWriter interface {
	AddChunks(ctx context.Context, chunks ...*core.Chunk) error
}

// Pipeline chunks, embeds, and stores documents.
type Pipeline struct {
	store    ChunkWriter
	embedder ai.Embedder
	pool     *ants.Pool

	chunkSize    int
	chunkOverlap int
	logger       *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
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

// WithChunking overrides the chunk window and overlap, both in words.
// Defaults are DefaultChunkSize and DefaultChunkOverlap.
func WithChunking(size, overlap int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("chunk size must be positive, got %d", size)
		}
		if overlap < 0 || overlap >= size {
			return fmt.Errorf("chunk overlap must be in [0, size), got %d", overlap)
		}
		p.chunkSize = size
		p.chunkOverlap = overlap
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
		p.logger = logger.With("component", "ingest")
		return nil
	}
}

// NewPipeline creates an ingestion pipeline.
// Call Release when done to free the worker pool.
func NewPipeline(store ChunkWriter, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		store:        store,
		embedder:     embedder,
		pool:         pool,
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		logger:       slog.Default().With("component", "ingest"),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			pool.Release()
			return nil, err
		}
	}

	return p, nil
}

// Release frees the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// IngestDocument splits the document, embeds every chunk, and stores the
// results with the given metadata. The metadata's ChunkIndex is overwritten
// with each chunk's position. Returns the stored chunks with their IDs set.
func (p *Pipeline) IngestDocument(ctx context.Context, documentID, text string, metadata core.ChunkMetadata) ([]*core.Chunk, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, ErrEmptyDocumentID
	}

	pieces := splitWords(text, p.chunkSize, p.chunkOverlap)
	if len(pieces) == 0 {
		return nil, ErrEmptyDocument
	}

	p.logger.Info("ingesting document", "documentID", documentID, "chunks", len(pieces))

	embeddings, err := p.embedAll(ctx, pieces)
	if err != nil {
		return nil, err
	}

	chunks := make([]*core.Chunk, len(pieces))
	for i, piece := range pieces {
		md := metadata
		md.ChunkIndex = i
		chunks[i] = &core.Chunk{
			DocumentID: documentID,
			Content:    piece,
			Embedding:  embeddings[i],
			Metadata:   md,
		}
	}

	if err := p.store.AddChunks(ctx, chunks...); err != nil {
		return nil, err
	}

	return chunks, nil
}

// embedAll embeds the pieces in concurrent batches, preserving order.
func (p *Pipeline) embedAll(ctx context.Context, pieces []string) ([][]float32, error) {
	embeddings := make([][]float32, len(pieces))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var embedErrs []error

	for start := 0; start < len(pieces); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(pieces) {
			end = len(pieces)
		}

		batch := pieces[start:end]
		offset := start

		wg.Add(1)
		if err := p.pool.Submit(func() {
			defer wg.Done()
			vectors, err := p.embedder.EmbedTexts(ctx, batch)
			if err == nil && len(vectors) != len(batch) {
				err = fmt.Errorf("embedding result mismatch. expected %d, received %d", len(batch), len(vectors))
			}
			if err != nil {
				mu.Lock()
				embedErrs = append(embedErrs, err)
				mu.Unlock()
				return
			}
			copy(embeddings[offset:], vectors)
		}); err != nil {
			wg.Done()
			mu.Lock()
			embedErrs = append(embedErrs, err)
			mu.Unlock()
		}
	}
	wg.Wait()

	if len(embedErrs) > 0 {
		return nil, errors.Join(embedErrs...)
	}
	return embeddings, nil
}
