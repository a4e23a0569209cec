package rank

import (
	"context"
	"strings"

	"github.com/searchforge/rank_aggregator/passage"
)

// Default overlap weights. Entity hits dominate keyword hits, which dominate
// generic token similarity; the spread mirrors how decisive each signal is
// for claim verification.
const (
	DefaultEntityWeight  = 100.0
	DefaultKeywordWeight = 10.0
	DefaultJaccardWeight = 1.0
)

// EntityOverlap scores candidates by lexical agreement with the claim:
// exact (case-insensitive) substring hits for extracted entities, token
// intersection with the claim's keywords, and word-set Jaccard similarity as
// a generic-relevance floor.
type EntityOverlap struct {
	EntityWeight  float64
	KeywordWeight float64
	JaccardWeight float64
}

// NewEntityOverlap returns the overlap strategy with default weights where
// non-positive values are given.
func NewEntityOverlap(entity, keyword, jaccardW float64) EntityOverlap {
	if entity <= 0 {
		entity = DefaultEntityWeight
	}
	if keyword <= 0 {
		keyword = DefaultKeywordWeight
	}
	if jaccardW <= 0 {
		jaccardW = DefaultJaccardWeight
	}
	return EntityOverlap{EntityWeight: entity, KeywordWeight: keyword, JaccardWeight: jaccardW}
}

// Name implements Strategy.
func (EntityOverlap) Name() string { return StrategyEntityOverlap }

// Score implements Strategy.
func (s EntityOverlap) Score(_ context.Context, pool *passage.Pool, ep Episode) map[string]float64 {
	entities := make([]string, 0, len(ep.Entities))
	for _, e := range ep.Entities {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			entities = append(entities, e)
		}
	}
	claimTokens := tokenSet(ep.Claim)

	scores := make(map[string]float64, pool.Len())
	for _, cand := range pool.All() {
		text := strings.ToLower(cand.Text())
		candTokens := tokenSet(cand.Text())

		var score float64
		for _, entity := range entities {
			if strings.Contains(text, entity) {
				score += s.EntityWeight
			}
		}
		for tok := range claimTokens {
			if candTokens[tok] {
				score += s.KeywordWeight
			}
		}
		score += s.JaccardWeight * jaccard(claimTokens, candTokens)

		scores[cand.Key()] = score
	}
	return scores
}
