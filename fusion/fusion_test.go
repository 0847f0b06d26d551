package fusion

import (
	"math"
	"testing"

	"github.com/evidentia/grounder/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunk(id core.ID) *core.Chunk {
	return &core.Chunk{Id: id, DocumentID: "doc", Content: "content"}
}

func ranked(ids ...core.ID) []core.RankedCandidate {
	out := make([]core.RankedCandidate, len(ids))
	for i, id := range ids {
		out[i] = core.RankedCandidate{Chunk: chunk(id), Score: 1.0 / float32(i+1), Rank: i + 1}
	}
	return out
}

func TestFuse_AgreementBeatsSingleHighRank(t *testing.T) {
	// Chunk 2 is mid-ranked in both lists; chunks 1 and 3 each top one list.
	vector := ranked(1, 2, 5)
	text := ranked(3, 2, 6)

	fused := Fuse(vector, text, DefaultK)
	require.Len(t, fused, 5)

	assert.Equal(t, core.ID(2), fused[0].Chunk.Id, "chunk in both lists should win")

	expected := 1.0/float64(DefaultK+2) + 1.0/float64(DefaultK+2)
	assert.InDelta(t, expected, fused[0].FusedScore, 1e-12)
}

func TestFuse_ScoreScalesAreIrrelevant(t *testing.T) {
	// Same ranks, wildly different score scales. Fusion must not care.
	vector := []core.RankedCandidate{
		{Chunk: chunk(1), Score: 0.99, Rank: 1},
		{Chunk: chunk(2), Score: 0.98, Rank: 2},
	}
	text := []core.RankedCandidate{
		{Chunk: chunk(2), Score: 0.0001, Rank: 1},
		{Chunk: chunk(1), Score: 0.00005, Rank: 2},
	}

	fused := Fuse(vector, text, DefaultK)
	require.Len(t, fused, 2)

	// Rank 1+2 on each side: identical fused scores, tie broken by ID.
	assert.InDelta(t, fused[0].FusedScore, fused[1].FusedScore, 1e-12)
	assert.Equal(t, core.ID(1), fused[0].Chunk.Id)
	assert.Equal(t, core.ID(2), fused[1].Chunk.Id)
}

func TestFuse_KnownContribution(t *testing.T) {
	// Rank 1 in vector, rank 3 in text with k=60: 1/61 + 1/63.
	vector := ranked(7)
	text := ranked(8, 9, 7)

	fused := Fuse(vector, text, 60)
	require.NotEmpty(t, fused)
	assert.Equal(t, core.ID(7), fused[0].Chunk.Id)

	expected := 1.0/61.0 + 1.0/63.0
	assert.InDelta(t, expected, fused[0].FusedScore, 1e-12)
}

func TestFuse_SingleListPassthrough(t *testing.T) {
	vector := ranked(4, 2, 9)

	fused := Fuse(vector, nil, DefaultK)
	require.Len(t, fused, 3)

	assert.Equal(t, core.ID(4), fused[0].Chunk.Id)
	assert.Equal(t, core.ID(2), fused[1].Chunk.Id)
	assert.Equal(t, core.ID(9), fused[2].Chunk.Id)
}

func TestFuse_EmptyLists(t *testing.T) {
	fused := Fuse(nil, nil, DefaultK)
	assert.Empty(t, fused)
}

func TestFuse_Deterministic(t *testing.T) {
	vector := ranked(1, 2, 3, 4)
	text := ranked(4, 3, 2, 1)

	first := Fuse(vector, text, DefaultK)
	for i := 0; i < 10; i++ {
		again := Fuse(vector, text, DefaultK)
		require.Len(t, again, len(first))
		for j := range first {
			assert.Equal(t, first[j].Chunk.Id, again[j].Chunk.Id)
			assert.Equal(t, first[j].FusedScore, again[j].FusedScore)
		}
	}
}

func TestFuse_DefaultsKWhenNonPositive(t *testing.T) {
	vector := ranked(1)

	fused := Fuse(vector, nil, 0)
	require.Len(t, fused, 1)
	assert.InDelta(t, 1.0/float64(DefaultK+1), fused[0].FusedScore, 1e-12)
}

func TestFuseLists_ThreeRetrievers(t *testing.T) {
	lists := [][]core.RankedCandidate{
		ranked(1, 2),
		ranked(2, 3),
		ranked(2, 1),
	}

	fused := FuseLists(lists, DefaultK)
	require.Len(t, fused, 3)
	assert.Equal(t, core.ID(2), fused[0].Chunk.Id, "chunk in all three lists should win")

	var total float64
	for _, f := range fused {
		total += f.FusedScore
	}
	assert.False(t, math.IsNaN(total))
}
