package synthesize

import (
	"fmt"
	"strings"
)

const synthesisPromptTemplate = `Answer the question using ONLY the numbered sources below. Do not use any outside knowledge.

Rules:
- Every factual claim must carry an inline citation marker like [1] or [2] referring to the source it came from.
- Use only the source numbers listed; never invent a number.
- If the sources contradict each other, say so and cite both.
- If the sources only partially answer the question, answer what they cover and say what is missing.
- Do not mention the sources mechanism itself ("source 1 says..."); write a direct answer with markers.

Sources:
%s

Question:
%s

Answer:`

// source is one numbered evidence entry in the synthesis prompt.
type source struct {
	marker  int
	content string
}

// buildSynthesisPrompt renders the numbered sources and question.
func buildSynthesisPrompt(question string, sources []source) string {
	var sb strings.Builder
	for _, s := range sources {
		fmt.Fprintf(&sb, "[%d] %s\n\n", s.marker, s.content)
	}
	return fmt.Sprintf(synthesisPromptTemplate, strings.TrimRight(sb.String(), "\n"), question)
}
