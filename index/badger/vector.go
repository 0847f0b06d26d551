package badger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/evidentia/grounder/access"
	"github.com/evidentia/grounder/core"
	"github.com/evidentia/grounder/index"
)

// VectorIndex implements index.Backend with a cosine-similarity scan over the
// chunk store. The embedding dimension is fixed at construction; query
// vectors of any other length are rejected.
type VectorIndex struct {
	store  *ChunkStore
	dims   int
	logger *slog.Logger
}

var _ index.Backend = (*VectorIndex)(nil)

// NewVectorIndex creates a vector index over the store.
func NewVectorIndex(store *ChunkStore, dims int) (*VectorIndex, error) {
	if store == nil {
		return nil, index.ErrStoreRequired
	}
	if dims <= 0 {
		return nil, index.ErrInvalidDimensions
	}

	return &VectorIndex{
		store:  store,
		dims:   dims,
		logger: slog.Default().With("component", "vector-index"),
	}, nil
}

// Dimensions returns the embedding dimension the index enforces.
func (v *VectorIndex) Dimensions() int {
	return v.dims
}

// Search returns the limit most similar accessible chunks, ranked by cosine
// similarity. The filter is applied before a chunk is scored.
func (v *VectorIndex) Search(ctx context.Context, queryText string, queryVector []float32, filter access.Filter, limit int) ([]core.RankedCandidate, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, index.ErrInvalidLimit
	}
	if len(queryVector) != v.dims {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index has %d",
			core.ErrDimensionMismatch, len(queryVector), v.dims)
	}

	var candidates []core.RankedCandidate
	err := v.store.forEachChunk(func(chunk *core.Chunk) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !filter.Matches(chunk) {
			return nil
		}
		if len(chunk.Embedding) != v.dims {
			// Write-time validation is owned by ingestion; tolerate strays.
			v.logger.Warn("skipping chunk with mismatched embedding",
				"chunkID", chunk.Id, "got", len(chunk.Embedding), "want", v.dims)
			return nil
		}

		candidates = append(candidates, core.RankedCandidate{
			Chunk: chunk,
			Score: cosineSimilarity(queryVector, chunk.Embedding),
		})
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, v.store.available(err)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Chunk.Id < candidates[j].Chunk.Id
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	for i := range candidates {
		candidates[i].Rank = i + 1
	}

	return candidates, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors of
// equal length. Zero vectors yield 0.
func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
