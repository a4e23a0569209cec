package rank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBM25PrefersClaimTerms(t *testing.T) {
	pool, ep := buildPool([]string{
		"Volcano | largest volcano eruption recorded in iceland",
		"Recipe | how to bake sourdough bread at home",
		"Eruption | the eruption was the largest in a century",
	})
	ep.Claim = "largest volcano eruption"

	scores := NewBM25(0, 0).Score(context.Background(), pool, ep)
	require.Len(t, scores, 3)

	assert.Greater(t, scores["volcano"], scores["recipe"])
	assert.Greater(t, scores["eruption"], scores["recipe"])
	assert.Greater(t, scores["volcano"], scores["eruption"], "more matched terms should win")
	assert.Zero(t, scores["recipe"])
}

func TestBM25EmptyClaimScoresZero(t *testing.T) {
	pool, ep := buildPool([]string{"A | text", "B | more text"})
	ep.Claim = ""

	scores := NewBM25(0, 0).Score(context.Background(), pool, ep)
	assert.Zero(t, scores["a"])
	assert.Zero(t, scores["b"])
}

func TestBM25EmptyPool(t *testing.T) {
	pool, ep := buildPool()
	ep.Claim = "anything"
	scores := NewBM25(0, 0).Score(context.Background(), pool, ep)
	assert.Empty(t, scores)
}
