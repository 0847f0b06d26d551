// Copyright 2025 Evidentia Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package synthesize

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/evidentia/grounder/ai"
	"github.com/evidentia/grounder/core"
)

// InsufficientEvidenceAnswer is returned verbatim when no relevant evidence
// survived grading. The model is never consulted in that case.
const InsufficientEvidenceAnswer = "I don't have enough grounded information in the accessible documents to answer this question."

// SubQueryResult carries one sub-query's graded evidence into synthesis.
type SubQueryResult struct {
	SubQuery   core.SubQuery
	Candidates []core.GradedCandidate
}

// Synthesizer generates cited answers from graded evidence.
type Synthesizer struct {
	completer ai.Completer
	logger    *slog.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synthesizer) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "synthesizer")
		return nil
	}
}

// NewSynthesizer creates a synthesizer over the given completer.
func NewSynthesizer(completer ai.Completer, opts ...Option) (*Synthesizer, error) {
	if completer == nil {
		return nil, ErrCompleterRequired
	}

	s := &Synthesizer{
		completer: completer,
		logger:    slog.Default().With("component", "synthesizer"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Synthesize builds a cited answer from the relevant evidence across all
// sub-query results. Results are processed in sub-query index order and a
// chunk appearing under several sub-queries is numbered once, at its first
// appearance, so citation markers are deterministic regardless of fan-out
// completion order.
//
// When no relevant evidence exists the canonical insufficient-evidence
// answer is returned without a model call. A model failure surfaces as
// core.ErrLLMUnavailable; there is no degraded answer without synthesis.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, results []SubQueryResult) (*core.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	ordered := make([]SubQueryResult, len(results))
	copy(ordered, results)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].SubQuery.Index < ordered[j].SubQuery.Index
	})

	var sources []source
	corpus := make(map[int]*core.Chunk)
	seen := make(map[core.ID]bool)
	subQueries := make([]core.SubQuery, 0, len(ordered))

	for _, result := range ordered {
		subQueries = append(subQueries, result.SubQuery)
		for _, candidate := range result.Candidates {
			if !candidate.Relevant || seen[candidate.Chunk.Id] {
				continue
			}
			seen[candidate.Chunk.Id] = true

			marker := len(sources) + 1
			sources = append(sources, source{marker: marker, content: candidate.Chunk.Content})
			corpus[marker] = candidate.Chunk
		}
	}

	if len(sources) == 0 {
		s.logger.Debug("no relevant evidence, skipping synthesis")
		return &core.Answer{
			Text:           InsufficientEvidenceAnswer,
			SubQueriesUsed: subQueries,
		}, nil
	}

	prompt := buildSynthesisPrompt(question, sources)
	response, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrLLMUnavailable, err)
	}

	text, citations, sourcesUsed := reconcileCitations(strings.TrimSpace(response), corpus)

	s.logger.Debug("synthesized answer",
		"sources", len(sources),
		"citations", len(citations))

	return &core.Answer{
		Text:           text,
		Citations:      citations,
		SourcesUsed:    sourcesUsed,
		SubQueriesUsed: subQueries,
	}, nil
}
