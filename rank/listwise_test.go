package rank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchforge/rank_aggregator/testutil"
)

func TestListwiseWindows(t *testing.T) {
	s := Listwise{WindowSize: 10, Overlap: 5, MinWindow: 3}

	assert.Equal(t, []window{{0, 3}}, s.windows(3))
	assert.Equal(t, []window{{0, 10}}, s.windows(10))
	// The tail window at start 10 would hold 2 candidates, below MinWindow.
	assert.Equal(t, []window{{0, 10}, {5, 12}}, s.windows(12))
	assert.Nil(t, s.windows(0))
}

func TestListwiseAveragesWindowScores(t *testing.T) {
	pool, ep := buildPool([]string{"A", "B", "C", "D", "E", "F"})
	ep.Claim = "claim"

	// Two windows: [A B C D] then [C D E F]. C is ranked first in the
	// first window (score 1.0) and second in the overlap window (0.5).
	fake := testutil.NewFakeJudge(
		"[2, 0, 1, 3]",
		"[1, 0, 2, 3]",
	)
	s := Listwise{Judge: fake, WindowSize: 4, Overlap: 2, MinWindow: 3}

	scores := s.Score(context.Background(), pool, ep)
	require.Equal(t, 2, fake.Calls())

	assert.InDelta(t, 0.75, scores["c"], 1e-12)
	assert.InDelta(t, (0.25+1.0)/2, scores["d"], 1e-12)
	assert.InDelta(t, 0.5, scores["a"], 1e-12)
	assert.InDelta(t, 1.0/3, scores["b"], 1e-12)
}

func TestListwiseFiltersInvalidIndicesAndBackfills(t *testing.T) {
	pool, ep := buildPool([]string{"A", "B", "C"})

	fake := testutil.NewFakeJudge("[5, 1]")
	s := NewListwise(fake, 10, 5, 3)

	scores := s.Score(context.Background(), pool, ep)

	// Index 5 is out of range; B leads, then A and C keep window order.
	assert.InDelta(t, 1.0, scores["b"], 1e-12)
	assert.InDelta(t, 0.5, scores["a"], 1e-12)
	assert.InDelta(t, 1.0/3, scores["c"], 1e-12)
}

func TestListwiseJudgeFailureKeepsPoolOrder(t *testing.T) {
	pool, ep := buildPool([]string{"A", "B", "C"})

	fake := testutil.NewFakeJudge()
	s := NewListwise(fake, 10, 5, 3)

	scores := s.Score(context.Background(), pool, ep)

	assert.InDelta(t, 1.0, scores["a"], 1e-12)
	assert.InDelta(t, 0.5, scores["b"], 1e-12)
	assert.InDelta(t, 1.0/3, scores["c"], 1e-12)
}

func TestListwiseDroppedTailScoresZero(t *testing.T) {
	pool, ep := buildPool([]string{"A", "B", "C", "D", "E"})

	s := Listwise{WindowSize: 4, Overlap: 2, MinWindow: 4}
	scores := s.Score(context.Background(), pool, ep)

	// The tail window [E] is below MinWindow; E gets no window coverage.
	assert.Zero(t, scores["e"])
	assert.InDelta(t, 1.0, scores["a"], 1e-12)
}

func TestListwiseCountsJudgeCalls(t *testing.T) {
	pool, ep := buildPool([]string{"A", "B", "C", "D", "E", "F"})
	counter := &countingTracker{}
	ep.Counter = counter

	fake := testutil.NewFakeJudge("[0, 1, 2, 3]")
	fake.Strict = false
	s := Listwise{Judge: fake, WindowSize: 4, Overlap: 2, MinWindow: 3}

	_ = s.Score(context.Background(), pool, ep)
	assert.Equal(t, 2, counter.calls)
}

type countingTracker struct{ calls int }

func (c *countingTracker) RecordJudgeCall() { c.calls++ }
