package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateChunk(t *testing.T) {
	valid := func() *Chunk {
		return &Chunk{
			Id:         1,
			DocumentID: "doc-1",
			Content:    "some content",
		}
	}

	t.Run("valid chunk", func(t *testing.T) {
		require.NoError(t, ValidateChunk(valid()))
	})

	t.Run("nil chunk", func(t *testing.T) {
		err := ValidateChunk(nil)
		assert.ErrorIs(t, err, ErrInvalidChunk)
	})

	t.Run("empty content", func(t *testing.T) {
		chunk := valid()
		chunk.Content = ""
		err := ValidateChunk(chunk)
		assert.ErrorIs(t, err, ErrInvalidChunk)
		assert.ErrorIs(t, err, ErrEmptyContent)
	})

	t.Run("empty document id", func(t *testing.T) {
		chunk := valid()
		chunk.DocumentID = ""
		err := ValidateChunk(chunk)
		assert.ErrorIs(t, err, ErrEmptyDocumentID)
	})

	t.Run("empty embedding is allowed", func(t *testing.T) {
		chunk := valid()
		chunk.Embedding = nil
		require.NoError(t, ValidateChunk(chunk))
	})
}

func TestValidateAccessContext(t *testing.T) {
	t.Run("regular user", func(t *testing.T) {
		require.NoError(t, ValidateAccessContext(AccessContext{UserID: "user-1"}))
	})

	t.Run("admin without user id", func(t *testing.T) {
		require.NoError(t, ValidateAccessContext(AccessContext{IsAdmin: true}))
	})

	t.Run("anonymous non-admin", func(t *testing.T) {
		err := ValidateAccessContext(AccessContext{})
		assert.ErrorIs(t, err, ErrInvalidAccessContext)
		assert.ErrorIs(t, err, ErrEmptyUserID)
	})
}

func TestValidateQueryOptions(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		require.NoError(t, ValidateQueryOptions(DefaultQueryOptions()))
	})

	t.Run("zero match count", func(t *testing.T) {
		opts := DefaultQueryOptions()
		opts.MatchCount = 0
		err := ValidateQueryOptions(opts)
		assert.ErrorIs(t, err, ErrInvalidQueryOptions)
		assert.ErrorIs(t, err, ErrInvalidMatchCount)
	})

	t.Run("unknown search mode", func(t *testing.T) {
		opts := DefaultQueryOptions()
		opts.SearchMode = SearchMode("graph")
		err := ValidateQueryOptions(opts)
		assert.ErrorIs(t, err, ErrInvalidSearchMode)
	})

	t.Run("single backend modes", func(t *testing.T) {
		for _, mode := range []SearchMode{SearchModeSemantic, SearchModeText} {
			opts := DefaultQueryOptions()
			opts.SearchMode = mode
			require.NoError(t, ValidateQueryOptions(opts))
		}
	})
}
