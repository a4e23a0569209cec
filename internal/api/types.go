package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/searchforge/rank_aggregator/policy"
)

var (
	// ErrBadRequest indicates the request was invalid.
	ErrBadRequest = errors.New("bad request")
	// ErrUpstreamOutage indicates every retrieval query failed.
	ErrUpstreamOutage = errors.New("upstream outage")
)

// AggregateRequest models one aggregation episode: a claim, the per-hop
// search queries issued for it, and the ranking knobs.
type AggregateRequest struct {
	Claim      string             `json:"claim"`
	Queries    []string           `json:"queries"`
	K          int                `json:"k,omitempty"`
	Budget     int                `json:"budget,omitempty"`
	BudgetMS   int                `json:"budget_ms,omitempty"`
	Entities   []string           `json:"entities,omitempty"`
	Strategies []string           `json:"strategies,omitempty"`
	Weights    map[string]float64 `json:"weights,omitempty"`
	Diversity  bool               `json:"diversity,omitempty"`
	TraceID    string             `json:"-"`
}

// Validate rejects requests the pipeline cannot execute. maxOutput caps both
// the per-query depth and the output budget.
func (r AggregateRequest) Validate(maxOutput int) error {
	if r.Claim == "" {
		return fmt.Errorf("claim is required")
	}
	if len(r.Queries) == 0 {
		return fmt.Errorf("at least one query is required")
	}
	for i, q := range r.Queries {
		if q == "" {
			return fmt.Errorf("query %d is empty", i)
		}
	}
	if r.K < 0 {
		return fmt.Errorf("k must be non-negative")
	}
	if r.Budget < 0 || r.Budget > maxOutput {
		return fmt.Errorf("budget must be in [0, %d]", maxOutput)
	}
	if r.BudgetMS < 0 {
		return fmt.Errorf("budget_ms must be non-negative")
	}
	for name, w := range r.Weights {
		if w < 0 {
			return fmt.Errorf("weight for %q must be non-negative", name)
		}
	}
	return nil
}

// Item is one ranked document in the response.
type Item struct {
	Title       string             `json:"title"`
	Content     string             `json:"content"`
	Score       float64            `json:"score"`
	Components  map[string]float64 `json:"components,omitempty"`
	SourceQuery int                `json:"source_query"`
}

// ResponseV1 is the public response schema for /v1/aggregate.
type ResponseV1 struct {
	Items   []Item       `json:"items"`
	Usage   policy.Usage `json:"usage"`
	Timings struct {
		TotalMS  int64            `json:"total_ms"`
		PerQuery map[string]int64 `json:"per_query_ms,omitempty"`
		CacheHit bool             `json:"cache_hit"`
	} `json:"timings"`
	RetCode  string `json:"ret_code"`
	Degraded bool   `json:"degraded"`
}

type contextKey string

const traceIDKey contextKey = "rank_aggregator_trace_id"

// ContextWithTraceID stores the trace identifier in context.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceIDFromContext extracts the trace identifier.
func TraceIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value := ctx.Value(traceIDKey)
	if value == nil {
		return "", false
	}
	traceID, ok := value.(string)
	return traceID, ok
}
