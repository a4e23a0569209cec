package rank

import (
	"github.com/searchforge/rank_aggregator/passage"
)

// DefaultDiversityLambda scales the similarity penalty; with base scores on
// a 0-10 scale, a near-duplicate loses up to 3 points.
const DefaultDiversityLambda = 3.0

// GreedyDiversity builds a result list one pick at a time: take the
// highest-scoring remaining candidate, then penalize the rest by their
// word-set Jaccard similarity to anything already picked. The penalty is
// non-negative, so each pick's adjusted score never exceeds the raw score of
// the pick before it.
type GreedyDiversity struct {
	Lambda float64
}

// NewGreedyDiversity returns the diversity selector; lambda <= 0 selects the
// default.
func NewGreedyDiversity(lambda float64) GreedyDiversity {
	if lambda <= 0 {
		lambda = DefaultDiversityLambda
	}
	return GreedyDiversity{Lambda: lambda}
}

// Select orders up to budget candidates by diminishing-return greedy
// selection over the base scores. budget <= 0 means no limit.
func (g GreedyDiversity) Select(pool *passage.Pool, base map[string]float64, budget int) []Scored {
	lambda := g.Lambda
	if lambda <= 0 {
		lambda = DefaultDiversityLambda
	}

	candidates := pool.All()
	if budget <= 0 || budget > len(candidates) {
		budget = len(candidates)
	}

	type entry struct {
		passage passage.Passage
		key     string
		tokens  map[string]bool
		raw     float64
		penalty float64
		picked  bool
	}
	entries := make([]*entry, len(candidates))
	for i, cand := range candidates {
		entries[i] = &entry{
			passage: cand,
			key:     cand.Key(),
			tokens:  tokenSet(cand.Text()),
			raw:     base[cand.Key()],
		}
	}

	out := make([]Scored, 0, budget)
	for len(out) < budget {
		// Argmax over adjusted scores; pool order breaks ties.
		var best *entry
		for _, e := range entries {
			if e.picked {
				continue
			}
			if best == nil || e.raw-e.penalty > best.raw-best.penalty {
				best = e
			}
		}
		if best == nil {
			break
		}

		best.picked = true
		out = append(out, Scored{
			Passage: best.passage,
			Key:     best.key,
			Score:   best.raw - best.penalty,
			Components: map[string]float64{
				"base":              best.raw,
				"diversity_penalty": best.penalty,
			},
		})

		// Penalize the remainder by similarity to the new pick; each
		// candidate keeps its maximum similarity to the picked set.
		for _, e := range entries {
			if e.picked {
				continue
			}
			if p := lambda * jaccard(e.tokens, best.tokens); p > e.penalty {
				e.penalty = p
			}
		}
	}
	return out
}
