package fusion

import (
	"sort"

	"github.com/evidentia/grounder/core"
)

// DefaultK is the standard rank-smoothing constant for reciprocal rank
// fusion. Higher values flatten the difference between adjacent ranks.
const DefaultK = 60

// Fuse merges the vector and text result lists with reciprocal rank fusion.
// Either list may be empty; a single non-empty list degrades to a rank-order
// passthrough with RRF scores.
func Fuse(vector, text []core.RankedCandidate, k int) []core.FusedCandidate {
	return FuseLists([][]core.RankedCandidate{vector, text}, k)
}

// FuseLists merges any number of ranked lists with reciprocal rank fusion.
// A chunk appearing in several lists accumulates 1/(k+rank) per appearance,
// so agreement between retrievers beats a single high rank. Input scores are
// ignored entirely; only positions matter, which is what makes fusing
// incomparable score scales sound. Ordering is deterministic: fused score
// descending, ties broken by chunk ID ascending.
func FuseLists(lists [][]core.RankedCandidate, k int) []core.FusedCandidate {
	if k <= 0 {
		k = DefaultK
	}

	scores := make(map[core.ID]float64)
	chunks := make(map[core.ID]*core.Chunk)

	for _, list := range lists {
		for i, candidate := range list {
			rank := candidate.Rank
			if rank <= 0 {
				rank = i + 1
			}

			id := candidate.Chunk.Id
			scores[id] += 1.0 / float64(k+rank)
			if _, seen := chunks[id]; !seen {
				chunks[id] = candidate.Chunk
			}
		}
	}

	fused := make([]core.FusedCandidate, 0, len(scores))
	for id, score := range scores {
		fused = append(fused, core.FusedCandidate{
			Chunk:      chunks[id],
			FusedScore: score,
		})
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].FusedScore != fused[j].FusedScore {
			return fused[i].FusedScore > fused[j].FusedScore
		}
		return fused[i].Chunk.Id < fused[j].Chunk.Id
	})

	return fused
}
