package grade

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/evidentia/grounder/ai/mock"
	"github.com/evidentia/grounder/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fusedCandidates(contents ...string) []core.FusedCandidate {
	out := make([]core.FusedCandidate, len(contents))
	for i, content := range contents {
		out[i] = core.FusedCandidate{
			Chunk:      &core.Chunk{Id: core.ID(i + 1), DocumentID: "doc", Content: content},
			FusedScore: 1.0 / float64(i+1),
		}
	}
	return out
}

func TestNewGrader_RequiresCompleter(t *testing.T) {
	_, err := NewGrader(nil)
	assert.ErrorIs(t, err, ErrCompleterRequired)
}

func TestGrade_EmptyQuestion(t *testing.T) {
	g, err := NewGrader(mock.NewMockCompleter())
	require.NoError(t, err)

	_, err = g.Grade(context.Background(), " ", fusedCandidates("passage"))
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestGrade_MixedVerdicts(t *testing.T) {
	completer := mock.NewMockCompleter(
		`{"relevant": true, "reasoning": "states the policy directly"}`,
		`{"relevant": false, "reasoning": "about a different product"}`,
		`{"relevant": true, "reasoning": "gives the escalation path"}`,
	)

	g, err := NewGrader(completer)
	require.NoError(t, err)

	graded, err := g.Grade(context.Background(), "What is the refund policy?",
		fusedCandidates("refunds within 30 days", "cafeteria menu", "contact support to escalate"))
	require.NoError(t, err)
	require.Len(t, graded, 3)

	assert.True(t, graded[0].Relevant)
	assert.Equal(t, "states the policy directly", graded[0].Reasoning)
	assert.False(t, graded[1].Relevant)
	assert.True(t, graded[2].Relevant)

	// Order and fused scores preserved.
	for i, gc := range graded {
		assert.Equal(t, core.ID(i+1), gc.Chunk.Id)
	}
}

func TestGrade_PromptContainsQuestionAndPassage(t *testing.T) {
	completer := mock.NewMockCompleter(`{"relevant": true, "reasoning": "ok"}`)

	g, err := NewGrader(completer)
	require.NoError(t, err)

	_, err = g.Grade(context.Background(), "What is the refund policy?",
		fusedCandidates("refunds within 30 days"))
	require.NoError(t, err)

	prompts := completer.Prompts()
	require.Len(t, prompts, 1)
	assert.True(t, strings.Contains(prompts[0], "What is the refund policy?"))
	assert.True(t, strings.Contains(prompts[0], "refunds within 30 days"))
}

func TestGrade_FailsOpenOnModelError(t *testing.T) {
	calls := 0
	completer := mock.NewMockCompleter()
	completer.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
		calls++
		if calls == 1 {
			return `{"relevant": false, "reasoning": "off topic"}`, nil
		}
		return "", errors.New("model unavailable")
	}

	g, err := NewGrader(completer)
	require.NoError(t, err)

	graded, err := g.Grade(context.Background(), "What is the refund policy?",
		fusedCandidates("first", "second", "third"))
	require.NoError(t, err, "model failure must not surface")
	require.Len(t, graded, 3)

	assert.False(t, graded[0].Relevant, "verdict before the outage stands")
	assert.True(t, graded[1].Relevant, "candidates after the outage pass through")
	assert.True(t, graded[2].Relevant)
	assert.Equal(t, 2, calls, "no model calls after the outage")
}

func TestGrade_MalformedResponsesFailOpen(t *testing.T) {
	completer := mock.NewMockCompleter("garbage", "garbage", "garbage")

	g, err := NewGrader(completer)
	require.NoError(t, err)

	graded, err := g.Grade(context.Background(), "question?", fusedCandidates("first", "second"))
	require.NoError(t, err)
	require.Len(t, graded, 2)

	assert.True(t, graded[0].Relevant)
	assert.True(t, graded[1].Relevant)
	assert.Equal(t, 3, completer.CallCount(), "three parse attempts, then fail open")
}

func TestGrade_CapMarksOverflowNotRelevant(t *testing.T) {
	completer := mock.NewMockCompleter(
		`{"relevant": true, "reasoning": "ok"}`,
		`{"relevant": true, "reasoning": "ok"}`,
	)

	g, err := NewGrader(completer, WithGradingCap(2))
	require.NoError(t, err)

	graded, err := g.Grade(context.Background(), "question?",
		fusedCandidates("first", "second", "third", "fourth"))
	require.NoError(t, err)
	require.Len(t, graded, 4)

	assert.True(t, graded[0].Relevant)
	assert.True(t, graded[1].Relevant)
	assert.False(t, graded[2].Relevant)
	assert.Equal(t, "beyond grading cap", graded[2].Reasoning)
	assert.False(t, graded[3].Relevant)
	assert.Equal(t, 2, completer.CallCount(), "no model calls beyond the cap")
}

func TestGrade_EmptyCandidates(t *testing.T) {
	completer := mock.NewMockCompleter()

	g, err := NewGrader(completer)
	require.NoError(t, err)

	graded, err := g.Grade(context.Background(), "question?", nil)
	require.NoError(t, err)
	assert.Empty(t, graded)
	assert.Equal(t, 0, completer.CallCount())
}
