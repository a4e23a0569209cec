package judge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVerdictNumeric(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want float64
	}{
		{"bare number", "7", 7},
		{"leading text", "Score: 8.5 because it mentions the treaty", 8.5},
		{"clamped high", "42", 10},
		{"clamped low", "-3", 0},
		{"decimal", "0.5", 0.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := ParseVerdict(tc.raw, Prompt{Want: KindNumeric, Range: DefaultRange})
			require.NoError(t, err)
			assert.Equal(t, KindNumeric, v.Kind)
			assert.InDelta(t, tc.want, v.Score, 1e-12)
		})
	}
}

func TestParseVerdictNumericRejectsNonNumeric(t *testing.T) {
	_, err := ParseVerdict("the document is highly relevant", Prompt{Want: KindNumeric, Range: DefaultRange})
	assert.Error(t, err)
}

func TestParseVerdictRankedIndices(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []int
	}{
		{"clean json", "[2, 0, 1]", []int{2, 0, 1}},
		{"prose prefix", "Ranking: [1, 2, 0]", []int{1, 2, 0}},
		{"trailing comma repaired", "[2, 0, 1,]", []int{2, 0, 1}},
		{"unterminated repaired", "[2, 0, 1", []int{2, 0, 1}},
		{"dedup", "[1, 1, 0]", []int{1, 0}},
		{"out of range filtered", "[7, 1, -2, 0]", []int{1, 0}},
		{"plain integers fallback", "first 2 then 0 then 1", []int{2, 0, 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := ParseVerdict(tc.raw, Prompt{Want: KindRankedIndices, Candidates: 3})
			require.NoError(t, err)
			assert.Equal(t, tc.want, v.Indices)
		})
	}
}

func TestParseVerdictRankedIndicesRejectsGarbage(t *testing.T) {
	_, err := ParseVerdict("no usable ranking", Prompt{Want: KindRankedIndices, Candidates: 3})
	assert.Error(t, err)
}

func TestParseVerdictScoredJustification(t *testing.T) {
	v, err := ParseVerdict("9 - directly states the founding date", Prompt{
		Want:  KindScoredJustification,
		Range: DefaultRange,
	})
	require.NoError(t, err)
	assert.Equal(t, KindScoredJustification, v.Kind)
	assert.InDelta(t, 9, v.Score, 1e-12)
	assert.Contains(t, v.Justification, "founding date")
}

func TestNumericOrNeutral(t *testing.T) {
	r := DefaultRange

	assert.InDelta(t, 5, NumericOrNeutral(Verdict{}, errors.New("boom"), r), 1e-12)
	assert.InDelta(t, 7, NumericOrNeutral(Verdict{Score: 7}, nil, r), 1e-12)
	assert.InDelta(t, 10, NumericOrNeutral(Verdict{Score: 99}, nil, r), 1e-12)

	wide := Range{Min: -1, Max: 1}
	assert.InDelta(t, 0, NumericOrNeutral(Verdict{}, errors.New("boom"), wide), 1e-12)
}

func TestRangeClampAndNeutral(t *testing.T) {
	r := Range{Min: 0, Max: 10}
	assert.Equal(t, 0.0, r.Clamp(-5))
	assert.Equal(t, 10.0, r.Clamp(50))
	assert.Equal(t, 3.0, r.Clamp(3))
	assert.Equal(t, 5.0, r.Neutral())
}
