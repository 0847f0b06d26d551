package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/evidentia/grounder/ai/mock"
	"github.com/evidentia/grounder/core"
	"github.com/evidentia/grounder/index/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPipelineFixture(t *testing.T, opts ...Option) (*badger.ChunkStore, *mock.MockEmbedder, *Pipeline) {
	t.Helper()

	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	embedder := mock.NewMockEmbedder()
	embedder.Dimensions = 8

	pipeline, err := NewPipeline(store, embedder, opts...)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	return store, embedder, pipeline
}

func TestNewPipeline_Validation(t *testing.T) {
	_, err := NewPipeline(nil, mock.NewMockEmbedder())
	assert.ErrorIs(t, err, ErrStoreRequired)

	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	_, err = NewPipeline(store, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewPipeline(store, mock.NewMockEmbedder(), WithChunking(10, 10))
	assert.Error(t, err, "overlap must be smaller than the window")
}

func TestIngestDocument_StoresEmbeddedChunks(t *testing.T) {
	store, _, pipeline := newPipelineFixture(t, WithChunking(4, 1))

	ctx := context.Background()
	metadata := core.ChunkMetadata{OwnerID: "alice", SourceURI: "docs/policy.md"}

	chunks, err := pipeline.IngestDocument(ctx, "policy",
		"refunds are honored within thirty days of purchase with receipt", metadata)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1, "document longer than the window must split")

	for i, chunk := range chunks {
		assert.NotZero(t, chunk.Id)
		assert.Equal(t, "policy", chunk.DocumentID)
		assert.Equal(t, i, chunk.Metadata.ChunkIndex)
		assert.Equal(t, "alice", chunk.Metadata.OwnerID)
		assert.Len(t, chunk.Embedding, 8)
	}

	ids, err := store.GetChunksByDocument(ctx, "policy")
	require.NoError(t, err)
	assert.Len(t, ids, len(chunks))
}

func TestIngestDocument_EmbeddingsMatchContent(t *testing.T) {
	_, _, pipeline := newPipelineFixture(t, WithChunking(3, 0))

	chunks, err := pipeline.IngestDocument(context.Background(), "doc",
		"one two three four five six", core.ChunkMetadata{IsPublic: true})
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	// The mock embedder is deterministic per text, so each chunk must carry
	// the vector of its own content regardless of which worker embedded it.
	for _, chunk := range chunks {
		assert.Equal(t, mock.DeterministicVector(chunk.Content, 8), chunk.Embedding)
	}
}

func TestIngestDocument_Validation(t *testing.T) {
	_, _, pipeline := newPipelineFixture(t)

	ctx := context.Background()

	_, err := pipeline.IngestDocument(ctx, "  ", "content", core.ChunkMetadata{})
	assert.ErrorIs(t, err, ErrEmptyDocumentID)

	_, err = pipeline.IngestDocument(ctx, "doc", "   ", core.ChunkMetadata{})
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestIngestDocument_EmbedderFailure(t *testing.T) {
	store, embedder, pipeline := newPipelineFixture(t, WithChunking(2, 0))

	boom := errors.New("embedding service down")
	embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		return nil, boom
	}

	_, err := pipeline.IngestDocument(context.Background(), "doc",
		"some content to ingest here", core.ChunkMetadata{})
	assert.ErrorIs(t, err, boom)

	count, err := store.CountChunks(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count, "nothing stored when embedding fails")
}

func TestIngestDocument_LargeDocumentUsesBatches(t *testing.T) {
	var mu sync.Mutex
	var batchSizes []int

	_, embedder, pipeline := newPipelineFixture(t, WithChunking(5, 0), WithPoolSize(4))
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		mu.Lock()
		batchSizes = append(batchSizes, len(texts))
		mu.Unlock()

		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vectors[i] = mock.DeterministicVector(text, 8)
		}
		return vectors, nil
	}

	// 200 words, window 5, no overlap: 40 chunks, so several batches.
	text := strings.Repeat("alpha beta gamma delta epsilon ", 40)
	chunks, err := pipeline.IngestDocument(context.Background(), "big-doc", text, core.ChunkMetadata{IsPublic: true})
	require.NoError(t, err)
	require.Len(t, chunks, 40)

	mu.Lock()
	defer mu.Unlock()
	assert.Greater(t, len(batchSizes), 1, "large documents embed in multiple batches")

	total := 0
	for _, n := range batchSizes {
		total += n
	}
	assert.Equal(t, 40, total)
}
