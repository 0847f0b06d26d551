package badger

import (
	"fmt"

	"github.com/evidentia/grounder/core"
)

// Key prefixes for different data types
const (
	chunkPrefix    = "chunk"
	documentPrefix = "chudoc"
)

// makeChunkKey generates a key for a chunk by ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkPrefix, id))
}

// makeDocumentKey generates a composite key for the document index.
// Format: prefix:documentID:chunkID
func makeDocumentKey(documentID string, id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d", documentPrefix, documentID, id))
}

// makePartialDocumentKey generates a partial key for listing a document's chunks.
// Format: prefix:documentID:
func makePartialDocumentKey(documentID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", documentPrefix, documentID))
}
