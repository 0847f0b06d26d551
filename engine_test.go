package grounder

import (
	"context"
	"strings"
	"testing"

	"github.com/evidentia/grounder/ai"
	"github.com/evidentia/grounder/ai/mock"
	"github.com/evidentia/grounder/core"
	"github.com/evidentia/grounder/index/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedCompleter routes each pipeline stage's prompt to a canned
// response, so the test doesn't depend on how many grading calls the
// retrieval results produce.
func scriptedCompleter(answer string) *mock.MockCompleter {
	completer := mock.NewMockCompleter()
	completer.CompleteFunc = func(_ context.Context, prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "needs_decomposition"):
			return `{"needs_decomposition": false, "sub_queries": []}`, nil
		case strings.Contains(prompt, `"relevant"`):
			return `{"relevant": true, "reasoning": "matches the question"}`, nil
		default:
			return answer, nil
		}
	}
	return completer
}

func newTestEngine(t *testing.T, answer string) (*Engine, ai.Provider) {
	t.Helper()

	store, err := badger.NewMemoryStore()
	require.NoError(t, err)

	provider := mock.NewMockProviderWithServices(mock.NewMockEmbedder(), scriptedCompleter(answer))

	engine, err := NewEngine(store, provider, mock.DefaultDimensions)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	return engine, provider
}

// seedChunk embeds content with the engine's provider and stores it.
func seedChunk(t *testing.T, engine *Engine, documentID, content string, metadata core.ChunkMetadata) {
	t.Helper()

	ctx := context.Background()
	embedding, err := engine.Provider().Embedder().EmbedText(ctx, content)
	require.NoError(t, err)

	require.NoError(t, engine.Store().AddChunks(ctx, &core.Chunk{
		DocumentID: documentID,
		Content:    content,
		Embedding:  embedding,
		Metadata:   metadata,
	}))
}

func TestEngine_QueryEndToEnd(t *testing.T) {
	engine, _ := newTestEngine(t, "Refunds are issued within 30 days [1].")

	seedChunk(t, engine, "policies", "refund requests are honored within 30 days of purchase",
		core.ChunkMetadata{OwnerID: "alice", SourceURI: "docs/refunds.md"})

	answer, err := engine.Query(context.Background(), "What is the refund policy?",
		core.AccessContext{UserID: "alice"}, core.DefaultQueryOptions())
	require.NoError(t, err)

	assert.Equal(t, "Refunds are issued within 30 days [1].", answer.Text)
	require.Len(t, answer.Citations, 1)
	assert.Equal(t, []string{"docs/refunds.md"}, answer.SourcesUsed)
}

func TestEngine_AccessIsolation(t *testing.T) {
	engine, _ := newTestEngine(t, "unused")

	seedChunk(t, engine, "private", "bob's secret refund arrangements",
		core.ChunkMetadata{OwnerID: "bob"})

	_, err := engine.Query(context.Background(), "What are the refund arrangements?",
		core.AccessContext{UserID: "alice"}, core.DefaultQueryOptions())
	assert.ErrorIs(t, err, core.ErrNoEvidence,
		"another user's private chunks must be invisible, not just uncited")
}

func TestEngine_AdminSeesEverything(t *testing.T) {
	engine, _ := newTestEngine(t, "The arrangement is documented [1].")

	seedChunk(t, engine, "private", "bob's secret refund arrangements",
		core.ChunkMetadata{OwnerID: "bob"})

	answer, err := engine.Query(context.Background(), "What are the refund arrangements?",
		core.AccessContext{UserID: "root", IsAdmin: true}, core.DefaultQueryOptions())
	require.NoError(t, err)
	require.Len(t, answer.Citations, 1)
}

func TestEngine_TextOnlyMode(t *testing.T) {
	engine, provider := newTestEngine(t, "Deployment needs approval [1].")

	seedChunk(t, engine, "runbook", "production deployment requires approval from the release manager",
		core.ChunkMetadata{IsPublic: true})

	mockProvider := provider.(*mock.MockProvider)
	embedCallsBefore := mockProvider.GetMockEmbedder().CallCount()

	options := core.DefaultQueryOptions()
	options.SearchMode = core.SearchModeText

	answer, err := engine.Query(context.Background(), "Who approves a production deployment?",
		core.AccessContext{UserID: "alice"}, options)
	require.NoError(t, err)

	require.Len(t, answer.Citations, 1)
	assert.Equal(t, embedCallsBefore, mockProvider.GetMockEmbedder().CallCount(),
		"text-only queries must not embed")
}

func TestEngine_StoreRoundTrip(t *testing.T) {
	engine, _ := newTestEngine(t, "unused")

	seedChunk(t, engine, "doc-1", "some stored content", core.ChunkMetadata{IsPublic: true})

	ids, err := engine.Store().GetChunksByDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Len(t, ids, 1)

	chunk, err := engine.Store().GetChunk(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, "some stored content", chunk.Content)
}
