package index

import (
	"context"

	"github.com/evidentia/grounder/access"
	"github.com/evidentia/grounder/core"
)

// Backend is a single search index over chunks.
// Implementations must be thread-safe and support concurrent access.
type Backend interface {
	// Search returns up to limit candidates for the query, ordered by the
	// backend's own ranking with Rank populated 1..N. Vector backends consume
	// queryVector (already embedded by the caller); text backends consume
	// queryText. Every implementation applies filter before a candidate is
	// scored: access control is never optional, a chunk that does not satisfy
	// the filter must never be returned.
	//
	// Fails with core.ErrIndexUnavailable if the backend cannot be reached,
	// core.ErrInvalidFilter if the filter is malformed, and
	// core.ErrDimensionMismatch if queryVector has the wrong length.
	Search(ctx context.Context, queryText string, queryVector []float32, filter access.Filter, limit int) ([]core.RankedCandidate, error)
}
