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


package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/evidentia/grounder/access"
	"github.com/evidentia/grounder/ai"
	"github.com/evidentia/grounder/core"
	"github.com/evidentia/grounder/decompose"
	"github.com/evidentia/grounder/fusion"
	"github.com/evidentia/grounder/grade"
	"github.com/evidentia/grounder/index"
	"github.com/evidentia/grounder/synthesize"
)

// Orchestrator runs the end-to-end query pipeline: decomposition, parallel
// per-sub-query hybrid retrieval, rank fusion, relevance grading, and cited
// synthesis, all under the caller's access context.
type Orchestrator struct {
	vector index.Backend
	text   index.Backend
	graph  index.Backend // optional third retriever, nil when disabled

	provider    ai.Provider
	decomposer  *decompose.Decomposer
	grader      *grade.Grader
	synthesizer *synthesize.Synthesizer

	pool   *ants.Pool
	config Config
	logger *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithConfig overrides the default orchestration tunables.
// Zero-valued fields keep their defaults.
func WithConfig(config Config) Option {
	return func(o *Orchestrator) error {
		o.config = config.withDefaults()
		return nil
	}
}

// WithGraphBackend adds a third retriever whose ranked results join fusion
// alongside the vector and text lists. Graph failures never fail a
// sub-query.
func WithGraphBackend(backend index.Backend) Option {
	return func(o *Orchestrator) error {
		o.graph = backend
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger.With("component", "orchestrator")
		return nil
	}
}

// NewOrchestrator wires the pipeline over the given backends and provider.
// Call Release when done to free the worker pool.
func NewOrchestrator(vector, text index.Backend, provider ai.Provider, opts ...Option) (*Orchestrator, error) {
	if vector == nil {
		return nil, ErrVectorBackendRequired
	}
	if text == nil {
		return nil, ErrTextBackendRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}

	o := &Orchestrator{
		vector:   vector,
		text:     text,
		provider: provider,
		config:   DefaultConfig(),
		logger:   slog.Default().With("component", "orchestrator"),
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	completer := provider.Completer()

	var err error
	o.decomposer, err = decompose.NewDecomposer(completer)
	if err != nil {
		return nil, err
	}
	o.grader, err = grade.NewGrader(completer, grade.WithGradingCap(o.config.GradingCap))
	if err != nil {
		return nil, err
	}
	o.synthesizer, err = synthesize.NewSynthesizer(completer)
	if err != nil {
		return nil, err
	}

	o.pool, err = ants.NewPool(o.config.MaxConcurrency)
	if err != nil {
		return nil, err
	}

	return o, nil
}

// Release frees the worker pool.
// The orchestrator should not be used after calling Release.
func (o *Orchestrator) Release() {
	if o.pool != nil {
		o.pool.Release()
	}
}

// Run executes a query for the given access context.
func (o *Orchestrator) Run(ctx context.Context, question string, accessCtx core.AccessContext, options core.QueryOptions) (*core.Answer, error) {
	return o.RunWithMonitor(ctx, question, accessCtx, options, nil)
}

// RunWithMonitor executes a query, reporting pipeline progress to the
// monitor. A nil monitor is replaced with a no-op.
func (o *Orchestrator) RunWithMonitor(ctx context.Context, question string, accessCtx core.AccessContext, options core.QueryOptions, monitor Monitor) (*core.Answer, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}
	if err := core.ValidateAccessContext(accessCtx); err != nil {
		return nil, err
	}
	if err := core.ValidateQueryOptions(options); err != nil {
		return nil, err
	}

	filter := access.Build(accessCtx)
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	monitor.Start(question)

	subQueries := []core.SubQuery{{Text: question, Index: 0}}
	decomposed := false
	if options.UseDecomposition {
		llmCtx, cancel := context.WithTimeout(ctx, o.config.LLMTimeout)
		var err error
		decomposed, subQueries, err = o.decomposer.Decompose(llmCtx, question)
		cancel()
		if err != nil {
			return nil, err
		}
	}
	monitor.AfterDecomposition(decomposed, subQueries)

	results, failed := o.fanOut(ctx, subQueries, filter, options, monitor)

	// The fan-out swallows per-sub-query errors; a cancelled parent context
	// must still surface rather than producing a partial answer.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("%w: all %d sub-query searches failed", core.ErrNoEvidence, failed)
	}

	graded, err := o.gradeResults(ctx, question, results, options, monitor)
	if err != nil {
		return nil, err
	}

	totalRelevant := 0
	for _, result := range graded {
		for _, candidate := range result.Candidates {
			if candidate.Relevant {
				totalRelevant++
			}
		}
	}
	if totalRelevant == 0 {
		return nil, fmt.Errorf("%w: no relevant chunks for %q", core.ErrNoEvidence, question)
	}

	llmCtx, cancel := context.WithTimeout(ctx, o.config.LLMTimeout)
	defer cancel()
	answer, err := o.synthesizer.Synthesize(llmCtx, question, graded)
	if err != nil {
		return nil, err
	}
	answer.FailedSubQueries = failed

	monitor.Finish(answer)
	return answer, nil
}

// subQueryOutcome is one sub-query's fused retrieval result.
type subQueryOutcome struct {
	subQuery   core.SubQuery
	candidates []core.FusedCandidate
	err        error
}

// fanOut runs retrieval for every sub-query on the worker pool and returns
// the successful outcomes plus the count of failed pipelines. Failures are
// logged and excluded; the answer degrades instead of the whole query
// failing.
func (o *Orchestrator) fanOut(ctx context.Context, subQueries []core.SubQuery, filter access.Filter, options core.QueryOptions, monitor Monitor) ([]subQueryOutcome, int) {
	outcomes := make([]subQueryOutcome, len(subQueries))

	var wg sync.WaitGroup
	for i, subQuery := range subQueries {
		wg.Add(1)
		if err := o.pool.Submit(func() {
			defer wg.Done()
			candidates, err := o.searchOne(ctx, subQuery, filter, options, monitor)
			outcomes[i] = subQueryOutcome{subQuery: subQuery, candidates: candidates, err: err}
		}); err != nil {
			outcomes[i] = subQueryOutcome{subQuery: subQuery, err: err}
			wg.Done()
		}
	}
	wg.Wait()

	successes := make([]subQueryOutcome, 0, len(outcomes))
	failed := 0
	for _, outcome := range outcomes {
		if outcome.err != nil {
			o.logger.Warn("sub-query pipeline failed, excluding from answer",
				"subQuery", outcome.subQuery.Text, "err", outcome.err)
			monitor.SubQueryFailed(outcome.subQuery, outcome.err)
			failed++
			continue
		}
		successes = append(successes, outcome)
	}

	return successes, failed
}

// searchOne runs one sub-query's retrieval and fusion.
func (o *Orchestrator) searchOne(ctx context.Context, subQuery core.SubQuery, filter access.Filter, options core.QueryOptions, monitor Monitor) ([]core.FusedCandidate, error) {
	searchCtx, cancel := context.WithTimeout(ctx, o.config.SearchTimeout)
	defer cancel()

	var queryVector []float32
	if options.SearchMode != core.SearchModeText {
		var err error
		queryVector, err = o.provider.Embedder().EmbedText(searchCtx, subQuery.Text)
		if err != nil {
			return nil, fmt.Errorf("%w: embedding failed: %w", core.ErrLLMUnavailable, err)
		}
	}

	var lists [][]core.RankedCandidate
	var vectorHits, textHits int
	var searchErrs []error

	if options.SearchMode != core.SearchModeText {
		hits, err := o.searchBackend(searchCtx, o.vector, subQuery.Text, queryVector, filter, options.MatchCount)
		if err != nil {
			searchErrs = append(searchErrs, fmt.Errorf("vector search: %w", err))
		} else {
			lists = append(lists, hits)
			vectorHits = len(hits)
		}
	}
	if options.SearchMode != core.SearchModeSemantic {
		hits, err := o.searchBackend(searchCtx, o.text, subQuery.Text, queryVector, filter, options.MatchCount)
		if err != nil {
			searchErrs = append(searchErrs, fmt.Errorf("text search: %w", err))
		} else {
			lists = append(lists, hits)
			textHits = len(hits)
		}
	}

	// The pipeline survives a partial backend outage: fusion just fuses the
	// lists that did come back. It fails only when nothing did.
	if len(lists) == 0 {
		return nil, errors.Join(searchErrs...)
	}
	for _, err := range searchErrs {
		o.logger.Warn("backend failed, fusing remaining lists",
			"subQuery", subQuery.Text, "err", err)
	}

	// Graph results are additive and never fatal.
	if o.graph != nil {
		hits, err := o.searchBackend(searchCtx, o.graph, subQuery.Text, queryVector, filter, options.MatchCount)
		if err != nil {
			o.logger.Warn("graph search failed, continuing without it",
				"subQuery", subQuery.Text, "err", err)
		} else if len(hits) > 0 {
			lists = append(lists, hits)
		}
	}

	monitor.SubQuerySearched(subQuery, vectorHits, textHits)

	fused := fusion.FuseLists(lists, o.config.FusionK)
	monitor.SubQueryFused(subQuery, fused)

	return fused, nil
}

// searchBackend queries one backend, retrying once on transient
// unavailability. Contract violations like a dimension mismatch are not
// retried.
func (o *Orchestrator) searchBackend(ctx context.Context, backend index.Backend, queryText string, queryVector []float32, filter access.Filter, limit int) ([]core.RankedCandidate, error) {
	var hits []core.RankedCandidate
	err := RetryWithBackoff(ctx, func() error {
		var err error
		hits, err = backend.Search(ctx, queryText, queryVector, filter, limit)
		return err
	}, 2, o.config.RetryBaseDelay, func(err error) bool {
		return errors.Is(err, core.ErrIndexUnavailable)
	})
	if err != nil {
		return nil, err
	}
	return hits, nil
}

// gradeResults grades each sub-query's candidates, or passes everything
// through as relevant when grading is disabled.
func (o *Orchestrator) gradeResults(ctx context.Context, question string, results []subQueryOutcome, options core.QueryOptions, monitor Monitor) ([]synthesize.SubQueryResult, error) {
	graded := make([]synthesize.SubQueryResult, 0, len(results))

	for _, result := range results {
		entry := synthesize.SubQueryResult{SubQuery: result.subQuery}

		if !options.UseGrading {
			entry.Candidates = make([]core.GradedCandidate, len(result.candidates))
			for i, candidate := range result.candidates {
				entry.Candidates[i] = core.GradedCandidate{FusedCandidate: candidate, Relevant: true}
			}
			graded = append(graded, entry)
			continue
		}

		llmCtx, cancel := context.WithTimeout(ctx, o.config.LLMTimeout)
		candidates, err := o.grader.Grade(llmCtx, result.subQuery.Text, result.candidates)
		cancel()
		if err != nil {
			return nil, err
		}
		entry.Candidates = candidates

		relevant := 0
		for _, candidate := range candidates {
			if candidate.Relevant {
				relevant++
			}
		}
		monitor.SubQueryGraded(result.subQuery, relevant, len(candidates))

		graded = append(graded, entry)
	}

	return graded, nil
}
