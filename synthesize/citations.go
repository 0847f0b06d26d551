package synthesize

import (
	"regexp"
	"strconv"

	"github.com/evidentia/grounder/core"
)

var markerPattern = regexp.MustCompile(`\[(\d+)\]`)

// reconcileCitations validates the inline markers in the answer text against
// the evidence corpus. Markers that map to a provided source become
// citations; markers the model invented are stripped from the text. Returns
// the cleaned text, the citations in first-use order, and the deduplicated
// document sources in the same order.
func reconcileCitations(text string, corpus map[int]*core.Chunk) (string, []core.Citation, []string) {
	var citations []core.Citation
	var sourcesUsed []string
	seenMarkers := make(map[int]bool)
	seenSources := make(map[string]bool)

	cleaned := markerPattern.ReplaceAllStringFunc(text, func(match string) string {
		n, err := strconv.Atoi(markerPattern.FindStringSubmatch(match)[1])
		if err != nil {
			return ""
		}

		chunk, ok := corpus[n]
		if !ok {
			// Marker the model made up. Remove it rather than cite nothing.
			return ""
		}

		if !seenMarkers[n] {
			seenMarkers[n] = true
			citations = append(citations, core.Citation{
				Marker:         match,
				ChunkID:        chunk.Id,
				DocumentSource: documentSource(chunk),
			})
		}
		if src := documentSource(chunk); !seenSources[src] {
			seenSources[src] = true
			sourcesUsed = append(sourcesUsed, src)
		}

		return match
	})

	return cleaned, citations, sourcesUsed
}

// documentSource prefers the human-readable source URI, falling back to the
// document ID.
func documentSource(chunk *core.Chunk) string {
	if chunk.Metadata.SourceURI != "" {
		return chunk.Metadata.SourceURI
	}
	return chunk.DocumentID
}
