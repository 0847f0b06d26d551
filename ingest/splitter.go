package ingest

import "strings"

const (
	// DefaultChunkSize is the chunk window in words.
	DefaultChunkSize = 200

	// DefaultChunkOverlap is how many words consecutive chunks share, so a
	// fact straddling a boundary is retrievable from either side.
	DefaultChunkOverlap = 40
)

// splitWords breaks text into overlapping word windows. The final window may
// be shorter; a window that would consist only of overlap is dropped.
func splitWords(text string, size, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if len(words) <= size {
		return []string{strings.Join(words, " ")}
	}

	stride := size - overlap
	var chunks []string
	for start := 0; start < len(words); start += stride {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}
