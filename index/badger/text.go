package badger

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/evidentia/grounder/access"
	"github.com/evidentia/grounder/core"
	"github.com/evidentia/grounder/index"
)

// TextIndex implements index.Backend with keyword matching over the chunk
// store. Scoring is the fraction of query terms present in the chunk, after
// stop-word filtering; the score is on this backend's own scale and only the
// resulting ranks feed fusion.
type TextIndex struct {
	store  *ChunkStore
	logger *slog.Logger
}

var _ index.Backend = (*TextIndex)(nil)

// NewTextIndex creates a lexical index over the store.
func NewTextIndex(store *ChunkStore) (*TextIndex, error) {
	if store == nil {
		return nil, index.ErrStoreRequired
	}

	return &TextIndex{
		store:  store,
		logger: slog.Default().With("component", "text-index"),
	}, nil
}

// Search returns the limit best keyword matches among accessible chunks.
// The filter is applied before a chunk is scored.
func (t *TextIndex) Search(ctx context.Context, queryText string, queryVector []float32, filter access.Filter, limit int) ([]core.RankedCandidate, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, index.ErrInvalidLimit
	}

	queryTerms := tokenizeAndFilter(queryText)
	if len(queryTerms) == 0 {
		return []core.RankedCandidate{}, nil
	}

	var candidates []core.RankedCandidate
	err := t.store.forEachChunk(func(chunk *core.Chunk) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !filter.Matches(chunk) {
			return nil
		}

		docTerms := make(map[string]bool)
		for _, term := range tokenizeAndFilter(chunk.Content) {
			docTerms[term] = true
		}

		matched := 0
		for _, term := range queryTerms {
			if docTerms[term] {
				matched++
			}
		}
		if matched == 0 {
			return nil
		}

		candidates = append(candidates, core.RankedCandidate{
			Chunk: chunk,
			Score: float32(matched) / float32(len(queryTerms)),
		})
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, t.store.available(err)
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

// Stop words to filter out of queries and documents
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "what": true, "how": true, "when": true, "where": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		// Lowercase and trim punctuation
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))

		// Skip stop words and empty strings
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}
