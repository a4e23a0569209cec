package rank

import (
	"sort"

	"github.com/searchforge/rank_aggregator/passage"
)

// Ensemble weights observed to work well when pairing one judge-based score
// with one retrieval-native score.
const (
	DefaultLLMWeight       = 0.6
	DefaultRetrievalWeight = 0.4
)

// Scored pairs a passage with its fused score and the per-strategy
// components that produced it.
type Scored struct {
	Passage    passage.Passage
	Key        string
	Score      float64
	Components map[string]float64
}

// Fuse combines per-strategy score maps into a single descending ordering.
// A single component is used raw; ensembles min-max normalize each component
// first and apply the weights. Missing weights default to an even split,
// except for the common pairing of one LLM strategy with one retrieval-native
// strategy, which gets the 0.6/0.4 split. Ties break by first-seen pool
// order, so the result is deterministic for a given insertion order.
func Fuse(pool *passage.Pool, components map[string]map[string]float64, weights map[string]float64) []Scored {
	candidates := pool.All()
	out := make([]Scored, 0, len(candidates))
	if len(candidates) == 0 {
		return out
	}

	single := ""
	if len(components) == 1 {
		for name := range components {
			single = name
		}
	}

	normalized := make(map[string]map[string]float64, len(components))
	for name, scores := range components {
		if single != "" {
			normalized[name] = scores
		} else {
			normalized[name] = minMaxNormalize(scores)
		}
	}
	resolved := resolveWeights(components, weights)

	for _, cand := range candidates {
		key := cand.Key()
		parts := make(map[string]float64, len(components))
		var fused float64
		for name, scores := range normalized {
			parts[name] = components[name][key]
			fused += resolved[name] * scores[key]
		}
		out = append(out, Scored{Passage: cand, Key: key, Score: fused, Components: parts})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return pool.FirstSeen(out[i].Key) < pool.FirstSeen(out[j].Key)
		}
		return out[i].Score > out[j].Score
	})
	return out
}

// Select truncates a fused list to the output budget. Fewer candidates than
// the budget yield a shorter list; the list is never padded.
func Select(items []Scored, budget int) []Scored {
	if budget <= 0 || budget >= len(items) {
		return items
	}
	return items[:budget]
}

func isLLMStrategy(name string) bool {
	return name == StrategyPointwise || name == StrategyListwise
}

func resolveWeights(components map[string]map[string]float64, weights map[string]float64) map[string]float64 {
	resolved := make(map[string]float64, len(components))

	var total float64
	missing := false
	for name := range components {
		if w, ok := weights[name]; ok && w > 0 {
			resolved[name] = w
			total += w
		} else {
			missing = true
		}
	}

	if missing {
		if len(components) == 2 && llmRetrievalPair(components) && len(resolved) == 0 {
			for name := range components {
				if isLLMStrategy(name) {
					resolved[name] = DefaultLLMWeight
				} else {
					resolved[name] = DefaultRetrievalWeight
				}
			}
			return resolved
		}
		for name := range components {
			if _, ok := resolved[name]; !ok {
				resolved[name] = 1
				total++
			}
		}
	}

	if total > 0 {
		for name := range resolved {
			resolved[name] /= total
		}
	}
	return resolved
}

func llmRetrievalPair(components map[string]map[string]float64) bool {
	llm := 0
	for name := range components {
		if isLLMStrategy(name) {
			llm++
		}
	}
	return llm == 1
}

func minMaxNormalize(scores map[string]float64) map[string]float64 {
	if len(scores) == 0 {
		return scores
	}
	first := true
	var lo, hi float64
	for _, v := range scores {
		if first {
			lo, hi = v, v
			first = false
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	out := make(map[string]float64, len(scores))
	span := hi - lo
	for k, v := range scores {
		if span == 0 {
			out[k] = 0
			continue
		}
		out[k] = (v - lo) / span
	}
	return out
}
