package query

import "github.com/evidentia/grounder/core"

// Monitor provides hooks to observe the query pipeline.
// Implementations must be safe for concurrent use: sub-query hooks fire from
// worker goroutines.
type Monitor interface {
	Start(question string)
	AfterDecomposition(decomposed bool, subQueries []core.SubQuery)
	SubQuerySearched(subQuery core.SubQuery, vectorHits, textHits int)
	SubQueryFused(subQuery core.SubQuery, candidates []core.FusedCandidate)
	SubQueryGraded(subQuery core.SubQuery, relevant, total int)
	SubQueryFailed(subQuery core.SubQuery, err error)
	Finish(answer *core.Answer)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                         {}
func (n *noopMonitor) AfterDecomposition(_ bool, _ []core.SubQuery)           {}
func (n *noopMonitor) SubQuerySearched(_ core.SubQuery, _, _ int)             {}
func (n *noopMonitor) SubQueryFused(_ core.SubQuery, _ []core.FusedCandidate) {}
func (n *noopMonitor) SubQueryGraded(_ core.SubQuery, _, _ int)               {}
func (n *noopMonitor) SubQueryFailed(_ core.SubQuery, _ error)                {}
func (n *noopMonitor) Finish(_ *core.Answer)                                  {}
