package reembed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evidentia/grounder/ai/mock"
	"github.com/evidentia/grounder/core"
	"github.com/evidentia/grounder/index/badger"
)

func newTestStore(t *testing.T) *badger.ChunkStore {
	t.Helper()

	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedChunks(t *testing.T, store *badger.ChunkStore, count int) []*core.Chunk {
	t.Helper()

	chunks := make([]*core.Chunk, count)
	for i := range chunks {
		chunks[i] = &core.Chunk{
			DocumentID: "doc-1",
			Content:    fmt.Sprintf("passage number %d about storage engines", i),
			Embedding:  []float32{1, 0, 0},
			Metadata:   core.ChunkMetadata{IsPublic: true, ChunkIndex: i},
		}
	}

	require.NoError(t, store.AddChunks(context.Background(), chunks...))
	return chunks
}

func TestReembedderRegeneratesAllEmbeddings(t *testing.T) {
	store := newTestStore(t)
	seedChunks(t, store, 7)

	embedder := mock.NewMockEmbedder()
	embedder.Dimensions = 3

	var out bytes.Buffer
	reembedder, err := NewReembedder(store, embedder, &Config{
		BatchSize:      3,
		ReportInterval: 1,
		MaxRetries:     1,
		RetryDelay:     time.Millisecond,
	}, &out)
	require.NoError(t, err)

	require.NoError(t, reembedder.Run(context.Background()))

	ids, err := store.ChunkIDs(context.Background())
	require.NoError(t, err)
	stored, err := store.GetChunks(context.Background(), ids...)
	require.NoError(t, err)
	require.Len(t, stored, 7)

	for _, chunk := range stored {
		require.Len(t, chunk.Embedding, 3)

		// Rewritten embeddings are unit length.
		var sum float64
		for _, v := range chunk.Embedding {
			sum += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, sum, 1e-5)

		// The seeded placeholder vector must be gone.
		assert.NotEqual(t, []float32{1, 0, 0}, chunk.Embedding)
	}

	assert.Contains(t, out.String(), "Reembedding complete")
}

func TestReembedderEmptyStore(t *testing.T) {
	store := newTestStore(t)
	embedder := mock.NewMockEmbedder()

	var out bytes.Buffer
	reembedder, err := NewReembedder(store, embedder, nil, &out)
	require.NoError(t, err)

	require.NoError(t, reembedder.Run(context.Background()))
	assert.Contains(t, out.String(), "No chunks found")
	assert.Zero(t, embedder.CallCount())
}

func TestReembedderValidation(t *testing.T) {
	_, err := NewReembedder(nil, mock.NewMockEmbedder(), nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrStoreRequired)

	_, err = NewReembedder(newTestStore(t), nil, nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestReembedderEmbedderFailure(t *testing.T) {
	store := newTestStore(t)
	original := seedChunks(t, store, 2)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("embedding service down")
	}

	var out bytes.Buffer
	reembedder, err := NewReembedder(store, embedder, &Config{
		BatchSize:      10,
		ReportInterval: 10,
		MaxRetries:     2,
		RetryDelay:     time.Millisecond,
	}, &out)
	require.NoError(t, err)

	err = reembedder.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding service down")

	// Retried before giving up.
	assert.Equal(t, 2, embedder.CallCount())

	// Stored embeddings are untouched on failure.
	stored, err := store.GetChunks(context.Background(), original[0].Id)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, []float32{1, 0, 0}, stored[0].Embedding)
}

func TestChunkIteratorBatching(t *testing.T) {
	store := newTestStore(t)
	seedChunks(t, store, 10)

	iterator := NewChunkIterator(store, 4)

	var batchSizes []int
	err := iterator.ForEach(context.Background(), func(chunks []*core.Chunk) error {
		batchSizes = append(batchSizes, len(chunks))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 4, 2}, batchSizes)
}

func TestChunkIteratorStopsOnCallbackError(t *testing.T) {
	store := newTestStore(t)
	seedChunks(t, store, 6)

	iterator := NewChunkIterator(store, 2)

	calls := 0
	sentinel := errors.New("stop here")
	err := iterator.ForEach(context.Background(), func(chunks []*core.Chunk) error {
		calls++
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestChunkIteratorRespectsCancellation(t *testing.T) {
	store := newTestStore(t)
	seedChunks(t, store, 6)

	ctx, cancel := context.WithCancel(context.Background())

	iterator := NewChunkIterator(store, 2)

	calls := 0
	err := iterator.ForEach(ctx, func(chunks []*core.Chunk) error {
		calls++
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestNormalizeVector(t *testing.T) {
	normalized := NormalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, normalized[0], 1e-6)
	assert.InDelta(t, 0.8, normalized[1], 1e-6)

	var length float64
	for _, v := range normalized {
		length += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(length), 1e-6)

	zero := NormalizeVector([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, zero)
}
