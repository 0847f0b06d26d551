package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/evidentia/grounder/access"
	"github.com/evidentia/grounder/core"
	"github.com/evidentia/grounder/index"
)

func newVectorFixture(t *testing.T) (*ChunkStore, *VectorIndex) {
	t.Helper()

	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	idx, err := NewVectorIndex(store, 3)
	if err != nil {
		t.Fatalf("Failed to create vector index: %v", err)
	}

	return store, idx
}

func TestVectorIndex_RanksBySimilarity(t *testing.T) {
	store, idx := newVectorFixture(t)
	ctx := context.Background()

	chunks := []*core.Chunk{
		{
			DocumentID: "doc-1",
			Content:    "exact direction",
			Embedding:  []float32{1.0, 0.0, 0.0},
			Metadata:   core.ChunkMetadata{IsPublic: true, ChunkIndex: 0},
		},
		{
			DocumentID: "doc-1",
			Content:    "close direction",
			Embedding:  []float32{0.9, 0.1, 0.0},
			Metadata:   core.ChunkMetadata{IsPublic: true, ChunkIndex: 1},
		},
		{
			DocumentID: "doc-1",
			Content:    "orthogonal",
			Embedding:  []float32{0.0, 0.0, 1.0},
			Metadata:   core.ChunkMetadata{IsPublic: true, ChunkIndex: 2},
		},
	}
	if err := store.AddChunks(ctx, chunks...); err != nil {
		t.Fatalf("Failed to add chunks: %v", err)
	}

	filter := access.Build(core.AccessContext{UserID: "alice"})
	results, err := idx.Search(ctx, "", []float32{1.0, 0.0, 0.0}, filter, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Chunk.Content != "exact direction" {
		t.Fatalf("Expected best match first, got %q", results[0].Chunk.Content)
	}
	if results[0].Rank != 1 || results[1].Rank != 2 {
		t.Fatalf("Expected ranks 1 and 2, got %d and %d", results[0].Rank, results[1].Rank)
	}
	if results[0].Score <= results[1].Score {
		t.Fatal("Results should be sorted by score descending")
	}
}

func TestVectorIndex_EnforcesAccessFilter(t *testing.T) {
	store, idx := newVectorFixture(t)
	ctx := context.Background()

	chunks := []*core.Chunk{
		{
			DocumentID: "doc-1",
			Content:    "alice's private note",
			Embedding:  []float32{1.0, 0.0, 0.0},
			Metadata:   core.ChunkMetadata{OwnerID: "alice", ChunkIndex: 0},
		},
		{
			DocumentID: "doc-2",
			Content:    "bob's private note",
			Embedding:  []float32{1.0, 0.0, 0.0},
			Metadata:   core.ChunkMetadata{OwnerID: "bob", ChunkIndex: 0},
		},
	}
	if err := store.AddChunks(ctx, chunks...); err != nil {
		t.Fatalf("Failed to add chunks: %v", err)
	}

	filter := access.Build(core.AccessContext{UserID: "alice"})
	results, err := idx.Search(ctx, "", []float32{1.0, 0.0, 0.0}, filter, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("Expected only alice's chunk, got %d results", len(results))
	}
	if results[0].Chunk.Metadata.OwnerID != "alice" {
		t.Fatalf("Expected alice's chunk, got owner %q", results[0].Chunk.Metadata.OwnerID)
	}

	// Admin sees everything.
	admin := access.Build(core.AccessContext{UserID: "root", IsAdmin: true})
	results, err = idx.Search(ctx, "", []float32{1.0, 0.0, 0.0}, admin, 10)
	if err != nil {
		t.Fatalf("Admin search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected admin to see 2 chunks, got %d", len(results))
	}
}

func TestVectorIndex_DimensionMismatch(t *testing.T) {
	_, idx := newVectorFixture(t)

	filter := access.Build(core.AccessContext{UserID: "alice"})
	_, err := idx.Search(context.Background(), "", []float32{1.0, 0.0}, filter, 5)
	if !errors.Is(err, core.ErrDimensionMismatch) {
		t.Fatalf("Expected ErrDimensionMismatch, got %v", err)
	}
}

func TestVectorIndex_RejectsInvalidInputs(t *testing.T) {
	_, idx := newVectorFixture(t)
	ctx := context.Background()

	// Unvalidated filter: non-admin with no user ID.
	_, err := idx.Search(ctx, "", []float32{1.0, 0.0, 0.0}, access.Filter{}, 5)
	if !errors.Is(err, core.ErrInvalidFilter) {
		t.Fatalf("Expected ErrInvalidFilter, got %v", err)
	}

	filter := access.Build(core.AccessContext{UserID: "alice"})
	_, err = idx.Search(ctx, "", []float32{1.0, 0.0, 0.0}, filter, 0)
	if !errors.Is(err, index.ErrInvalidLimit) {
		t.Fatalf("Expected ErrInvalidLimit, got %v", err)
	}
}

func TestVectorIndex_SkipsMismatchedEmbeddings(t *testing.T) {
	store, idx := newVectorFixture(t)
	ctx := context.Background()

	chunks := []*core.Chunk{
		{
			DocumentID: "doc-1",
			Content:    "well formed",
			Embedding:  []float32{1.0, 0.0, 0.0},
			Metadata:   core.ChunkMetadata{IsPublic: true, ChunkIndex: 0},
		},
		{
			DocumentID: "doc-1",
			Content:    "stray dimensions",
			Embedding:  []float32{1.0, 0.0},
			Metadata:   core.ChunkMetadata{IsPublic: true, ChunkIndex: 1},
		},
	}
	if err := store.AddChunks(ctx, chunks...); err != nil {
		t.Fatalf("Failed to add chunks: %v", err)
	}

	filter := access.Build(core.AccessContext{UserID: "alice"})
	results, err := idx.Search(ctx, "", []float32{1.0, 0.0, 0.0}, filter, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("Expected mismatched chunk to be skipped, got %d results", len(results))
	}
	if results[0].Chunk.Content != "well formed" {
		t.Fatalf("Expected the well-formed chunk, got %q", results[0].Chunk.Content)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 0, 0}, []float32{1, 0, 0}, 1.0},
		{"orthogonal", []float32{1, 0, 0}, []float32{0, 1, 0}, 0.0},
		{"opposite", []float32{1, 0, 0}, []float32{-1, 0, 0}, -1.0},
		{"zero vector", []float32{0, 0, 0}, []float32{1, 0, 0}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-6 || diff < -1e-6 {
				t.Fatalf("Expected %f, got %f", tt.want, got)
			}
		})
	}
}
