// Package judge defines the collaborator boundary for LLM-backed scoring
// calls. Raw model output is parsed and normalized here, in one place, so the
// ranking core only ever sees float-typed scores and index lists.
package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	jsonrepair "github.com/kaptinlin/jsonrepair"
)

// Kind discriminates the verdict variants a judge call can produce.
type Kind int

const (
	// KindNumeric expects a single numeric score.
	KindNumeric Kind = iota
	// KindRankedIndices expects a ranked list of candidate indices,
	// best first.
	KindRankedIndices
	// KindScoredJustification expects a numeric score plus free-text
	// justification.
	KindScoredJustification
)

// Range declares the valid bounds of a numeric verdict.
type Range struct {
	Min float64
	Max float64
}

// DefaultRange covers the 0-10 relevance scale used by the shipped prompts.
var DefaultRange = Range{Min: 0, Max: 10}

// Clamp forces v into the range.
func (r Range) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Neutral returns the range midpoint, the fallback score for failed or
// unparseable judge calls.
func (r Range) Neutral() float64 {
	return (r.Min + r.Max) / 2
}

// Field is one labeled input of a judge prompt.
type Field struct {
	Name  string
	Value string
}

// Prompt carries the structured inputs of a single judge call.
type Prompt struct {
	Instruction string
	Fields      []Field
	Want        Kind
	Range       Range
	// Candidates is the window size a KindRankedIndices call ranks over;
	// parsed indices outside [0, Candidates) are discarded.
	Candidates int
}

// Verdict is the normalized output of a judge call.
type Verdict struct {
	Kind          Kind
	Score         float64
	Indices       []int
	Justification string
}

// Judge produces a structured verdict for a prompt. Implementations may fail;
// callers recover with NumericOrNeutral / the listwise backfill rather than
// propagating the error.
type Judge interface {
	Judge(ctx context.Context, p Prompt) (Verdict, error)
}

// Func adapts a function to the Judge interface.
type Func func(ctx context.Context, p Prompt) (Verdict, error)

// Judge implements Judge.
func (f Func) Judge(ctx context.Context, p Prompt) (Verdict, error) {
	return f(ctx, p)
}

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// ParseVerdict normalizes raw model text into a Verdict for the expected
// kind. Numeric values are clamped to the prompt range; ranked indices are
// repaired when the model emits almost-JSON, deduplicated, and filtered to
// [0, p.Candidates). An error means nothing usable was found.
func ParseVerdict(raw string, p Prompt) (Verdict, error) {
	switch p.Want {
	case KindRankedIndices:
		indices, err := parseIndices(raw, p.Candidates)
		if err != nil {
			return Verdict{}, err
		}
		return Verdict{Kind: KindRankedIndices, Indices: indices}, nil
	case KindScoredJustification:
		score, err := parseNumber(raw)
		if err != nil {
			return Verdict{}, err
		}
		return Verdict{
			Kind:          KindScoredJustification,
			Score:         p.Range.Clamp(score),
			Justification: strings.TrimSpace(raw),
		}, nil
	default:
		score, err := parseNumber(raw)
		if err != nil {
			return Verdict{}, err
		}
		return Verdict{Kind: KindNumeric, Score: p.Range.Clamp(score)}, nil
	}
}

// NumericOrNeutral is the single fallback point for numeric judge calls: any
// upstream error yields the range midpoint, and valid scores are clamped.
func NumericOrNeutral(v Verdict, err error, r Range) float64 {
	if err != nil {
		return r.Neutral()
	}
	return r.Clamp(v.Score)
}

func parseNumber(raw string) (float64, error) {
	// Models usually lead with the score ("8 - the document ..."); take the
	// first number anywhere in the text.
	match := numberPattern.FindString(raw)
	if match == "" {
		return 0, fmt.Errorf("no numeric score in %q", truncate(raw, 80))
	}
	return strconv.ParseFloat(match, 64)
}

func parseIndices(raw string, candidates int) ([]int, error) {
	values, ok := decodeIndexList(raw)
	if !ok {
		// Fall back to every integer in the text, in order.
		for _, match := range numberPattern.FindAllString(raw, -1) {
			if v, err := strconv.Atoi(match); err == nil {
				values = append(values, v)
			}
		}
	}

	seen := make(map[int]bool, len(values))
	indices := make([]int, 0, len(values))
	for _, v := range values {
		if v < 0 || (candidates > 0 && v >= candidates) || seen[v] {
			continue
		}
		seen[v] = true
		indices = append(indices, v)
	}
	if len(indices) == 0 {
		return nil, fmt.Errorf("no valid indices in %q", truncate(raw, 80))
	}
	return indices, nil
}

func decodeIndexList(raw string) ([]int, bool) {
	candidate := extractBracketed(raw)
	if candidate == "" {
		return nil, false
	}

	var values []int
	if err := json.Unmarshal([]byte(candidate), &values); err == nil {
		return values, true
	}

	repaired, err := jsonrepair.JSONRepair(candidate)
	if err != nil {
		return nil, false
	}
	if err := json.Unmarshal([]byte(repaired), &values); err != nil {
		return nil, false
	}
	return values, true
}

func extractBracketed(raw string) string {
	start := strings.Index(raw, "[")
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(raw, "]")
	if end <= start {
		// Unterminated list; let jsonrepair close it.
		return raw[start:]
	}
	return raw[start : end+1]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
