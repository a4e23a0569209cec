package rank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/searchforge/rank_aggregator/judge"
	"github.com/searchforge/rank_aggregator/testutil"
)

func TestPointwiseScoresParseClampAndFallBack(t *testing.T) {
	pool, ep := buildPool([]string{"A", "B", "C"})
	ep.Claim = "claim"
	counter := &countingTracker{}
	ep.Counter = counter

	// A parses cleanly, B has no number and degrades to the midpoint,
	// C exceeds the range and clamps.
	fake := testutil.NewFakeJudge("8 - relevant", "no score here", "15")
	s := NewPointwise(fake, judge.Range{})

	scores := s.Score(context.Background(), pool, ep)

	assert.InDelta(t, 8, scores["a"], 1e-12)
	assert.InDelta(t, 5, scores["b"], 1e-12)
	assert.InDelta(t, 10, scores["c"], 1e-12)
	assert.Equal(t, 3, counter.calls)
}

func TestPointwiseNilJudgeScoresNeutral(t *testing.T) {
	pool, ep := buildPool([]string{"A", "B"})
	counter := &countingTracker{}
	ep.Counter = counter

	scores := NewPointwise(nil, judge.DefaultRange).Score(context.Background(), pool, ep)

	assert.InDelta(t, 5, scores["a"], 1e-12)
	assert.InDelta(t, 5, scores["b"], 1e-12)
	assert.Zero(t, counter.calls, "neutral path must not count judge calls")
}
