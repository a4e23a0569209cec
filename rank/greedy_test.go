package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGreedyDiversityDemotesNearDuplicates(t *testing.T) {
	pool, _ := buildPool([]string{
		"First | the eiffel tower opened in 1889 in paris",
		"Dup | the eiffel tower opened in 1889 in paris france",
		"Other | marie curie discovered polonium and radium",
	})
	base := map[string]float64{"first": 10, "dup": 9.5, "other": 8}

	picked := NewGreedyDiversity(0).Select(pool, base, 0)
	require.Len(t, picked, 3)

	// The near-duplicate loses more than its half-point lead over Other.
	assert.Equal(t, []string{"first", "other", "dup"}, keysOf(picked))
	assert.Greater(t, picked[2].Components["diversity_penalty"], 0.0)
}

func TestGreedyDiversityScoresNonIncreasing(t *testing.T) {
	pool, _ := buildPool([]string{
		"A | shared words one two three",
		"B | shared words one two four",
		"C | unrelated content entirely different",
		"D | shared words one five six",
	})
	base := map[string]float64{"a": 9, "b": 8.5, "c": 7, "d": 8.9}

	picked := NewGreedyDiversity(0).Select(pool, base, 0)
	require.Len(t, picked, 4)
	for i := 1; i < len(picked); i++ {
		assert.LessOrEqual(t, picked[i].Score, picked[i-1].Score)
	}
}

func TestGreedyDiversityHonorsBudget(t *testing.T) {
	pool, _ := buildPool([]string{"A", "B", "C", "D"})
	base := map[string]float64{"a": 4, "b": 3, "c": 2, "d": 1}

	picked := NewGreedyDiversity(0).Select(pool, base, 2)
	require.Len(t, picked, 2)
	assert.Equal(t, []string{"a", "b"}, keysOf(picked))
}
