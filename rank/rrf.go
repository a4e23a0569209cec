package rank

import (
	"context"

	"github.com/searchforge/rank_aggregator/passage"
)

// DefaultRRFK is the standard smoothing constant from the RRF literature.
const DefaultRRFK = 60

// RRF scores candidates with Reciprocal Rank Fusion: each source list that
// mentions a key contributes 1/(K + rank) with 0-indexed rank, and
// contributions are additive. The result is independent of the order in
// which source lists were processed.
type RRF struct {
	K float64
}

// NewRRF returns an RRF strategy; k <= 0 selects the default constant.
func NewRRF(k float64) RRF {
	if k <= 0 {
		k = DefaultRRFK
	}
	return RRF{K: k}
}

// Name implements Strategy.
func (RRF) Name() string { return StrategyRRF }

// Score implements Strategy.
func (r RRF) Score(_ context.Context, pool *passage.Pool, _ Episode) map[string]float64 {
	k := r.K
	if k <= 0 {
		k = DefaultRRFK
	}

	scores := make(map[string]float64, pool.Len())
	for _, cand := range pool.All() {
		key := cand.Key()
		var score float64
		for _, occ := range pool.Occurrences(key) {
			score += 1.0 / (k + float64(occ.Rank))
		}
		scores[key] = score
	}
	return scores
}

// CrossQuery multiplies the additive reciprocal-rank score by the number of
// distinct source queries that mentioned the key, rewarding documents that
// several independent queries converged on.
type CrossQuery struct {
	K float64
}

// NewCrossQuery returns the cross-query coverage strategy.
func NewCrossQuery(k float64) CrossQuery {
	if k <= 0 {
		k = DefaultRRFK
	}
	return CrossQuery{K: k}
}

// Name implements Strategy.
func (CrossQuery) Name() string { return StrategyCrossQuery }

// Score implements Strategy.
func (c CrossQuery) Score(_ context.Context, pool *passage.Pool, _ Episode) map[string]float64 {
	k := c.K
	if k <= 0 {
		k = DefaultRRFK
	}

	scores := make(map[string]float64, pool.Len())
	for _, cand := range pool.All() {
		key := cand.Key()
		var sum float64
		for _, occ := range pool.Occurrences(key) {
			sum += 1.0 / (k + float64(occ.Rank))
		}
		scores[key] = sum * float64(len(pool.SourceQueries(key)))
	}
	return scores
}
