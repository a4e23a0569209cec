package rank

import (
	"context"

	"github.com/searchforge/rank_aggregator/judge"
	"github.com/searchforge/rank_aggregator/passage"
)

const pointwiseInstruction = "Score the candidate document's relevance to verifying the claim." +
	" Consider whether it mentions the entities, relationships, and facts the claim depends on."

// Pointwise issues one judge call per candidate and uses the returned
// relevance score. A failed or unparseable call degrades to the midpoint of
// the declared range; it never fails the episode.
type Pointwise struct {
	Judge judge.Judge
	Range judge.Range
}

// NewPointwise returns the pointwise judge strategy; a zero range selects
// the default 0-10 scale.
func NewPointwise(j judge.Judge, r judge.Range) Pointwise {
	if r == (judge.Range{}) {
		r = judge.DefaultRange
	}
	return Pointwise{Judge: j, Range: r}
}

// Name implements Strategy.
func (Pointwise) Name() string { return StrategyPointwise }

// Score implements Strategy.
func (s Pointwise) Score(ctx context.Context, pool *passage.Pool, ep Episode) map[string]float64 {
	scores := make(map[string]float64, pool.Len())
	for _, cand := range pool.All() {
		key := cand.Key()
		if s.Judge == nil {
			scores[key] = s.Range.Neutral()
			continue
		}

		ep.countJudgeCall()
		verdict, err := s.Judge.Judge(ctx, judge.Prompt{
			Instruction: pointwiseInstruction,
			Fields: []judge.Field{
				{Name: "claim", Value: ep.Claim},
				{Name: "candidate_doc", Value: cand.Text()},
			},
			Want:  judge.KindNumeric,
			Range: s.Range,
		})
		scores[key] = judge.NumericOrNeutral(verdict, err, s.Range)
	}
	return scores
}
