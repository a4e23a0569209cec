package rank

import (
	"context"
	"fmt"
	"strings"

	"github.com/searchforge/rank_aggregator/judge"
	"github.com/searchforge/rank_aggregator/passage"
)

// Listwise window defaults.
const (
	DefaultWindowSize    = 10
	DefaultWindowOverlap = 5
	DefaultMinWindow     = 3
)

const listwiseInstruction = "Rank the candidate documents by how useful each is for verifying the claim."

// Listwise partitions the candidate set into overlapping fixed-size windows,
// asks the judge for a full ranking within each window, and converts in-window
// rank to a reciprocal-rank score. Candidates touched by multiple windows
// receive the mean of their per-window scores.
type Listwise struct {
	Judge judge.Judge
	// WindowSize and Overlap control the sliding windows
	// (step = WindowSize - Overlap). Tail windows smaller than MinWindow
	// are dropped.
	WindowSize int
	Overlap    int
	MinWindow  int
}

// NewListwise returns the sliding-window listwise strategy with defaults for
// non-positive parameters.
func NewListwise(j judge.Judge, size, overlap, minWindow int) Listwise {
	if size <= 0 {
		size = DefaultWindowSize
	}
	if overlap <= 0 || overlap >= size {
		overlap = DefaultWindowOverlap
		if overlap >= size {
			overlap = size / 2
		}
	}
	if minWindow <= 0 {
		minWindow = DefaultMinWindow
	}
	return Listwise{Judge: j, WindowSize: size, Overlap: overlap, MinWindow: minWindow}
}

// Name implements Strategy.
func (Listwise) Name() string { return StrategyListwise }

// Score implements Strategy.
func (s Listwise) Score(ctx context.Context, pool *passage.Pool, ep Episode) map[string]float64 {
	candidates := pool.All()
	sums := make(map[string]float64, len(candidates))
	counts := make(map[string]int, len(candidates))

	for _, w := range s.windows(len(candidates)) {
		window := candidates[w.start:w.end]
		order := s.rankWindow(ctx, window, ep)
		for pos, idx := range order {
			key := window[idx].Key()
			sums[key] += 1.0 / float64(pos+1)
			counts[key]++
		}
	}

	scores := make(map[string]float64, len(candidates))
	for _, cand := range candidates {
		key := cand.Key()
		if counts[key] > 0 {
			scores[key] = sums[key] / float64(counts[key])
		} else {
			// Dropped-tail candidates that no window covered.
			scores[key] = 0
		}
	}
	return scores
}

type window struct{ start, end int }

func (s Listwise) windows(n int) []window {
	size := s.WindowSize
	if size <= 0 {
		size = DefaultWindowSize
	}
	step := size - s.Overlap
	if step <= 0 {
		step = size
	}
	minWindow := s.MinWindow
	if minWindow <= 0 {
		minWindow = DefaultMinWindow
	}

	var out []window
	for start := 0; start < n; start += step {
		end := start + size
		if end > n {
			end = n
		}
		if end-start < minWindow && start > 0 {
			break
		}
		out = append(out, window{start: start, end: end})
		if end == n {
			break
		}
	}
	return out
}

// rankWindow returns the window's candidate indices in judged order. Invalid
// indices from the judge are filtered; members the judge skipped follow the
// ranked ones in their original window order. A failed call keeps the window
// order as-is.
func (s Listwise) rankWindow(ctx context.Context, window []passage.Passage, ep Episode) []int {
	identity := make([]int, len(window))
	for i := range identity {
		identity[i] = i
	}
	if s.Judge == nil || len(window) < 2 {
		return identity
	}

	var docs strings.Builder
	for i, cand := range window {
		fmt.Fprintf(&docs, "[%d] %s\n", i, cand.Text())
	}

	ep.countJudgeCall()
	verdict, err := s.Judge.Judge(ctx, judge.Prompt{
		Instruction: listwiseInstruction,
		Fields: []judge.Field{
			{Name: "claim", Value: ep.Claim},
			{Name: "candidates", Value: docs.String()},
		},
		Want:       judge.KindRankedIndices,
		Candidates: len(window),
	})
	if err != nil {
		return identity
	}

	ranked := make([]int, 0, len(window))
	seen := make(map[int]bool, len(window))
	for _, idx := range verdict.Indices {
		if idx < 0 || idx >= len(window) || seen[idx] {
			continue
		}
		seen[idx] = true
		ranked = append(ranked, idx)
	}
	for i := range window {
		if !seen[i] {
			ranked = append(ranked, i)
		}
	}
	return ranked
}
