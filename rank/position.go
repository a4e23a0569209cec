package rank

import (
	"context"

	"github.com/searchforge/rank_aggregator/passage"
)

// PositionDecay rewards passages retrieved early within their source list:
// score = 1 - rank/listSize. A passage mentioned by several lists keeps its
// best position score.
type PositionDecay struct{}

// Name implements Strategy.
func (PositionDecay) Name() string { return StrategyPositionDecay }

// Score implements Strategy.
func (PositionDecay) Score(_ context.Context, pool *passage.Pool, ep Episode) map[string]float64 {
	// Without recorded list sizes, fall back to the per-source occurrence
	// counts observed in the pool.
	fallback := make(map[int]int)
	for _, cand := range pool.All() {
		for _, occ := range pool.Occurrences(cand.Key()) {
			if occ.Rank+1 > fallback[occ.SourceQuery] {
				fallback[occ.SourceQuery] = occ.Rank + 1
			}
		}
	}

	scores := make(map[string]float64, pool.Len())
	for _, cand := range pool.All() {
		key := cand.Key()
		best := 0.0
		for _, occ := range pool.Occurrences(key) {
			size := ep.listSize(occ.SourceQuery, fallback[occ.SourceQuery])
			if size <= 0 {
				continue
			}
			if s := 1.0 - float64(occ.Rank)/float64(size); s > best {
				best = s
			}
		}
		scores[key] = best
	}
	return scores
}
