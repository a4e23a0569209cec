package rank

import (
	"context"
	"math"

	"github.com/searchforge/rank_aggregator/passage"
)

// BM25 defaults, tunable per deployment.
const (
	DefaultBM25K1 = 1.5
	DefaultBM25B  = 0.75
)

// BM25 scores each candidate against the episode claim with the standard
// Okapi formula over whitespace-tokenized lowercase text. Document
// frequencies and average document length are computed over the candidate
// set itself.
type BM25 struct {
	K1 float64
	B  float64
}

// NewBM25 returns a BM25 strategy; non-positive parameters select the
// defaults.
func NewBM25(k1, b float64) BM25 {
	if k1 <= 0 {
		k1 = DefaultBM25K1
	}
	if b <= 0 {
		b = DefaultBM25B
	}
	return BM25{K1: k1, B: b}
}

// Name implements Strategy.
func (BM25) Name() string { return StrategyBM25 }

// Score implements Strategy.
func (s BM25) Score(_ context.Context, pool *passage.Pool, ep Episode) map[string]float64 {
	k1, b := s.K1, s.B
	if k1 <= 0 {
		k1 = DefaultBM25K1
	}
	if b <= 0 {
		b = DefaultBM25B
	}

	candidates := pool.All()
	scores := make(map[string]float64, len(candidates))
	if len(candidates) == 0 {
		return scores
	}

	// Term frequencies and lengths per candidate, document frequencies and
	// average length over the whole candidate set.
	type docStats struct {
		tf     map[string]int
		length int
	}
	stats := make([]docStats, len(candidates))
	df := make(map[string]int)
	var totalLen int

	for i, cand := range candidates {
		tokens := tokenize(cand.Text())
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		for tok := range tf {
			df[tok]++
		}
		stats[i] = docStats{tf: tf, length: len(tokens)}
		totalLen += len(tokens)
	}
	avgLen := float64(totalLen) / float64(len(candidates))

	n := float64(len(candidates))
	query := tokenize(ep.Claim)

	for i, cand := range candidates {
		var score float64
		for _, term := range query {
			freq := stats[i].tf[term]
			if freq == 0 {
				continue
			}
			idf := math.Log((n-float64(df[term])+0.5)/(float64(df[term])+0.5) + 1)
			norm := 1 - b + b*float64(stats[i].length)/avgLen
			score += idf * float64(freq) * (k1 + 1) / (float64(freq) + k1*norm)
		}
		scores[cand.Key()] = score
	}
	return scores
}
