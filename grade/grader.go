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


package grade

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/evidentia/grounder/ai"
	"github.com/evidentia/grounder/core"
)

// DefaultGradingCap bounds the number of candidates graded per sub-query.
// Candidates beyond the cap are marked not relevant without a model call.
const DefaultGradingCap = 20

// verdict is the wrapper structure for the LLM's JSON response.
type verdict struct {
	Relevant  bool   `json:"relevant"`
	Reasoning string `json:"reasoning"`
}

// Grader judges candidate relevance with an LLM.
type Grader struct {
	completer ai.Completer
	cap       int
	logger    *slog.Logger
}

// Option configures a Grader.
type Option func(*Grader) error

// WithGradingCap overrides the per-call candidate cap.
// Default is DefaultGradingCap.
func WithGradingCap(n int) Option {
	return func(g *Grader) error {
		if n > 0 {
			g.cap = n
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Grader) error {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger.With("component", "grader")
		return nil
	}
}

// NewGrader creates a grader over the given completer.
func NewGrader(completer ai.Completer, opts ...Option) (*Grader, error) {
	if completer == nil {
		return nil, ErrCompleterRequired
	}

	g := &Grader{
		completer: completer,
		cap:       DefaultGradingCap,
		logger:    slog.Default().With("component", "grader"),
	}

	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// Grade judges each candidate against the question, preserving input order.
// Output length always equals input length.
//
// Grading fails open: once the model becomes unavailable, the current and
// all remaining ungraded candidates are passed through as relevant, since
// dropping evidence on an outage is worse than synthesizing from an
// unfiltered set. A response that stays malformed after retries counts as
// unavailability.
func (g *Grader) Grade(ctx context.Context, question string, candidates []core.FusedCandidate) ([]core.GradedCandidate, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	graded := make([]core.GradedCandidate, len(candidates))
	failedOpen := false

	for i, candidate := range candidates {
		graded[i] = core.GradedCandidate{FusedCandidate: candidate}

		if i >= g.cap {
			graded[i].Relevant = false
			graded[i].Reasoning = "beyond grading cap"
			continue
		}
		if failedOpen {
			graded[i].Relevant = true
			graded[i].Reasoning = "grading unavailable, passed through"
			continue
		}

		relevant, reasoning, err := g.gradeOne(ctx, question, candidate.Chunk.Content)
		if err != nil {
			g.logger.Warn("grading unavailable, passing remaining candidates through",
				"candidate", i, "err", err)
			failedOpen = true
			graded[i].Relevant = true
			graded[i].Reasoning = "grading unavailable, passed through"
			continue
		}

		graded[i].Relevant = relevant
		graded[i].Reasoning = reasoning
	}

	return graded, nil
}

// gradeOne runs a single relevance judgment, retrying malformed JSON.
func (g *Grader) gradeOne(ctx context.Context, question, passage string) (bool, string, error) {
	prompt := buildGradingPrompt(question, passage)

	// Try up to 3 times in case of malformed JSON
	var result verdict
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := g.completer.Complete(ctx, prompt)
		if err != nil {
			return false, "", err
		}

		responseText := ai.NormalizeJSONResponse(response)
		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			g.logger.Warn("error parsing grading response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		return result.Relevant, result.Reasoning, nil
	}

	return false, "", lastErr
}
