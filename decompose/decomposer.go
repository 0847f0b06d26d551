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


package decompose

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/evidentia/grounder/ai"
	"github.com/evidentia/grounder/core"
)

// DefaultMaxSubQueries caps how many sub-queries a single question can fan
// out into.
const DefaultMaxSubQueries = 5

// decomposition is the wrapper structure for the LLM's JSON response.
type decomposition struct {
	NeedsDecomposition bool     `json:"needs_decomposition"`
	SubQueries         []string `json:"sub_queries"`
}

// Decomposer splits questions into sub-queries using an LLM.
type Decomposer struct {
	completer     ai.Completer
	maxSubQueries int
	logger        *slog.Logger
}

// Option configures a Decomposer.
type Option func(*Decomposer) error

// WithMaxSubQueries overrides the sub-query cap.
// Default is DefaultMaxSubQueries.
func WithMaxSubQueries(n int) Option {
	return func(d *Decomposer) error {
		if n > 0 {
			d.maxSubQueries = n
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Decomposer) error {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger.With("component", "decomposer")
		return nil
	}
}

// NewDecomposer creates a decomposer over the given completer.
func NewDecomposer(completer ai.Completer, opts ...Option) (*Decomposer, error) {
	if completer == nil {
		return nil, ErrCompleterRequired
	}

	d := &Decomposer{
		completer:     completer,
		maxSubQueries: DefaultMaxSubQueries,
		logger:        slog.Default().With("component", "decomposer"),
	}

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// Decompose splits the question into sub-queries when it spans multiple
// topics. The returned bool reports whether decomposition happened; when it
// is false the slice holds the original question as the single sub-query.
//
// Model and parse failures never propagate: decomposition is an
// optimization, so on any failure the original question is returned with a
// nil error and the failure is logged.
func (d *Decomposer) Decompose(ctx context.Context, question string) (bool, []core.SubQuery, error) {
	if strings.TrimSpace(question) == "" {
		return false, nil, ErrEmptyQuestion
	}

	passthrough := []core.SubQuery{{Text: question, Index: 0}}

	prompt := buildDecompositionPrompt(question, d.maxSubQueries)

	// Try up to 3 times in case of malformed JSON
	var result decomposition
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := d.completer.Complete(ctx, prompt)
		if err != nil {
			d.logger.Warn("decomposition model call failed, using original question",
				"attempt", attempt+1, "err", err)
			return false, passthrough, nil
		}

		responseText := ai.NormalizeJSONResponse(response)
		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			d.logger.Warn("error parsing decomposition response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		d.logger.Warn("failed to parse decomposition response after retries, using original question",
			"err", lastErr)
		return false, passthrough, nil
	}

	subQueries := make([]string, 0, len(result.SubQueries))
	for _, sq := range result.SubQueries {
		if strings.TrimSpace(sq) != "" {
			subQueries = append(subQueries, sq)
		}
	}

	// A split into fewer than two parts is not a split.
	if !result.NeedsDecomposition || len(subQueries) < 2 {
		return false, passthrough, nil
	}

	if len(subQueries) > d.maxSubQueries {
		d.logger.Debug("clamping sub-queries",
			"got", len(subQueries), "max", d.maxSubQueries)
		subQueries = subQueries[:d.maxSubQueries]
	}

	out := make([]core.SubQuery, len(subQueries))
	for i, sq := range subQueries {
		out[i] = core.SubQuery{Text: sq, Index: i}
	}

	d.logger.Debug("decomposed question", "subQueries", len(out))
	return true, out, nil
}
