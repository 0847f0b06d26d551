package core

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for chunks.
// It is generated by the ingestion subsystem, usually via content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ChunkMetadata carries the ownership and provenance attributes of a chunk.
// The ownership fields drive row-level access control on every search.
type ChunkMetadata struct {
	OwnerID    string
	OwnerEmail string
	IsPublic   bool
	SharedWith []string // user IDs or email addresses the document is shared with
	GroupIDs   []string // groups the document is shared with
	SourceURI  string
	ChunkIndex int // position of this chunk within its document
}

// Chunk is a read-only fragment of a document supplied by the index backends.
// Every chunk belongs to exactly one document. The embedding dimension is
// fixed per index; search rejects query vectors of a different dimension.
type Chunk struct {
	Id         ID
	DocumentID string
	Content    string
	Embedding  []float32
	Metadata   ChunkMetadata
}

// AccessContext is the caller's identity for a single request.
// It is created once per request, never mutated, and never persisted.
type AccessContext struct {
	UserID    string
	UserEmail string
	IsAdmin   bool
	GroupIDs  []string
}

// RankedCandidate is a chunk as ranked by a single index backend.
// Score is on the backend's native scale and must never be compared
// across backends; Rank is the 1-based position within the backend's
// own result list and is the only value rank fusion consumes.
type RankedCandidate struct {
	Chunk *Chunk
	Score float32
	Rank  int
}

// FusedCandidate is a chunk after reciprocal rank fusion.
// FusedScore is derived purely from rank positions and is comparable
// across backends.
type FusedCandidate struct {
	Chunk      *Chunk
	FusedScore float64
}

// SubQuery is an independently searchable fragment of a decomposed question.
// Index is the ordinal position within the decomposition and is the sort key
// that keeps citation numbering deterministic across the parallel fan-out.
type SubQuery struct {
	Text  string
	Index int
}

// GradedCandidate is a fused candidate after relevance grading.
type GradedCandidate struct {
	FusedCandidate
	Relevant  bool
	Reasoning string
}

// Citation maps an inline marker in the answer text to a source chunk.
type Citation struct {
	Marker         string // e.g. "[1]"
	ChunkID        ID
	DocumentSource string
}

// Answer is the final grounded result of a query.
type Answer struct {
	Text             string
	Citations        []Citation
	SourcesUsed      []string // deduplicated document sources, in citation order
	SubQueriesUsed   []SubQuery
	FailedSubQueries int // sub-query pipelines that failed and were excluded
}

// SearchMode selects which index backends a query consults.
type SearchMode string

const (
	// SearchModeSemantic searches the vector index only.
	SearchModeSemantic SearchMode = "semantic"
	// SearchModeText searches the lexical index only.
	SearchModeText SearchMode = "text"
	// SearchModeHybrid searches both indexes and fuses the rankings.
	SearchModeHybrid SearchMode = "hybrid"
)

// QueryOptions tunes a single query. Use DefaultQueryOptions as the base;
// the zero value is not a valid configuration.
type QueryOptions struct {
	UseDecomposition bool
	UseGrading       bool
	MatchCount       int // results requested from each index backend
	SearchMode       SearchMode
}

// DefaultQueryOptions returns the standard options: hybrid search with
// decomposition and grading enabled, five matches per backend.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		UseDecomposition: true,
		UseGrading:       true,
		MatchCount:       5,
		SearchMode:       SearchModeHybrid,
	}
}
