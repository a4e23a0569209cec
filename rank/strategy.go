// Package rank implements the multi-source rank aggregation core: pluggable
// scoring strategies over a deduplicated candidate pool, weighted fusion of
// their scores, and budget-bounded selection of the final document list.
package rank

import (
	"context"

	"github.com/searchforge/rank_aggregator/passage"
)

// Strategy names used for component scores and ensemble weights.
const (
	StrategyPositionDecay = "position_decay"
	StrategyRRF           = "rrf"
	StrategyCrossQuery    = "cross_query"
	StrategyBM25          = "bm25"
	StrategyEntityOverlap = "entity_overlap"
	StrategyPointwise     = "pointwise"
	StrategyListwise      = "listwise"
)

// CallCounter receives accounting events for judge calls issued by
// LLM-backed strategies.
type CallCounter interface {
	RecordJudgeCall()
}

// Episode is the per-claim context shared by every strategy in one
// aggregation run. A fresh Episode accompanies each pool; nothing persists
// across claims.
type Episode struct {
	// Claim is the top-level claim or question driving this episode.
	Claim string
	// Entities are extracted entity strings for overlap scoring; may be nil.
	Entities []string
	// ListSizes holds the raw (pre-dedup) length of each source list,
	// indexed by source query.
	ListSizes []int
	// Counter, when set, tracks judge-call usage.
	Counter CallCounter
}

func (e Episode) countJudgeCall() {
	if e.Counter != nil {
		e.Counter.RecordJudgeCall()
	}
}

// listSize returns the raw length of a source list, falling back to the
// occurrence count when the episode did not record sizes.
func (e Episode) listSize(source, fallback int) int {
	if source >= 0 && source < len(e.ListSizes) && e.ListSizes[source] > 0 {
		return e.ListSizes[source]
	}
	return fallback
}

// Strategy assigns a score to every candidate in the pool, keyed by
// normalized title. Strategies never fail: degraded inputs (a judge error, a
// missing list size) produce neutral scores instead of errors.
type Strategy interface {
	Name() string
	Score(ctx context.Context, pool *passage.Pool, ep Episode) map[string]float64
}
