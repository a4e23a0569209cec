package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/searchforge/rank_aggregator/internal/api"
	"github.com/searchforge/rank_aggregator/judge"
	"github.com/searchforge/rank_aggregator/obs"
	"github.com/searchforge/rank_aggregator/passage"
	"github.com/searchforge/rank_aggregator/policy"
	"github.com/searchforge/rank_aggregator/rank"
	"github.com/searchforge/rank_aggregator/retriever"
)

const (
	retrieverSource = "retriever"
	judgeSource     = "judge"
)

// Config groups controller dependencies.
type Config struct {
	DefaultK        int
	MaxOutput       int
	DefaultBudgetMS int
	CacheTTL        time.Duration
	PolicyVersion   string
	Strategies      []string
	DiversityLambda float64

	RetrieverPolicy policy.SourceConfig
	JudgePolicy     policy.SourceConfig

	Metrics *policy.Metrics
	Logger  *zap.Logger
}

// Controller orchestrates one aggregation episode: fan-out retrieval,
// candidate pooling, strategy scoring, fusion, and budget-clamped selection.
type Controller struct {
	retriever retriever.Retriever
	judge     judge.Judge
	policies  *policy.Controller
	cache     *Cache
	metrics   *policy.Metrics
	logger    *zap.Logger

	defaultK        int
	maxOutput       int
	strategies      []string
	diversityLambda float64
	policyHash      string
}

// New constructs a controller. judge may be nil; judge-backed strategies then
// score every candidate at the neutral midpoint.
func New(src retriever.Retriever, j judge.Judge, cfg Config) (*Controller, error) {
	if src == nil {
		return nil, fmt.Errorf("retriever required")
	}

	if cfg.DefaultK <= 0 {
		cfg.DefaultK = 10
	}
	if cfg.MaxOutput <= 0 {
		cfg.MaxOutput = policy.DefaultMaxOutput
	}
	if cfg.DiversityLambda <= 0 {
		cfg.DiversityLambda = rank.DefaultDiversityLambda
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	retrieverPolicy := cfg.RetrieverPolicy
	retrieverPolicy.Name = retrieverSource
	if retrieverPolicy.Timeout <= 0 {
		retrieverPolicy.Timeout = 800 * time.Millisecond
	}
	judgePolicy := cfg.JudgePolicy
	judgePolicy.Name = judgeSource
	if judgePolicy.Timeout <= 0 {
		judgePolicy.Timeout = 10 * time.Second
	}

	policies, err := policy.NewController(policy.ControllerConfig{
		DefaultBudgetMS: cfg.DefaultBudgetMS,
		Sources:         []policy.SourceConfig{retrieverPolicy, judgePolicy},
	}, cfg.Metrics)
	if err != nil {
		return nil, err
	}

	strategies := cfg.Strategies
	if len(strategies) == 0 {
		strategies = []string{rank.StrategyRRF}
		if j != nil {
			strategies = []string{rank.StrategyListwise, rank.StrategyRRF}
		}
	}

	return &Controller{
		retriever:       src,
		judge:           j,
		policies:        policies,
		cache:           NewCache(cfg.CacheTTL),
		metrics:         cfg.Metrics,
		logger:          cfg.Logger,
		defaultK:        cfg.DefaultK,
		maxOutput:       cfg.MaxOutput,
		strategies:      strategies,
		diversityLambda: cfg.DiversityLambda,
		policyHash:      cfg.PolicyVersion,
	}, nil
}

// DefaultK returns the per-query retrieval depth used when the request does
// not set one.
func (c *Controller) DefaultK() int {
	return c.defaultK
}

// MaxOutput returns the hard cap on returned documents.
func (c *Controller) MaxOutput() int {
	return c.maxOutput
}

// Aggregate executes the full pipeline for one claim.
func (c *Controller) Aggregate(ctx context.Context, req api.AggregateRequest) (api.ResponseV1, error) {
	var resp api.ResponseV1
	resp.Timings.PerQuery = make(map[string]int64)
	resp.RetCode = "OK"

	if err := req.Validate(c.maxOutput); err != nil {
		resp.RetCode = "BAD_REQUEST"
		return resp, fmt.Errorf("%w: %v", api.ErrBadRequest, err)
	}
	if req.K == 0 {
		req.K = c.defaultK
	}
	if req.Budget == 0 {
		req.Budget = c.maxOutput
	}
	strategyNames := req.Strategies
	if len(strategyNames) == 0 {
		strategyNames = c.strategies
	}
	strategies, err := c.buildStrategies(strategyNames)
	if err != nil {
		resp.RetCode = "BAD_REQUEST"
		return resp, fmt.Errorf("%w: %v", api.ErrBadRequest, err)
	}

	cacheKey := BuildCacheKey(req, strategyNames, c.policyHash)
	if entry, ok := c.cache.Get(cacheKey); ok {
		obs.RecordCacheEvent("hit")
		resp.Items = cloneItems(entry.Items)
		resp.Usage = entry.Usage
		resp.Timings.TotalMS = entry.TotalMS
		resp.Timings.CacheHit = true
		resp.Degraded = entry.Degraded
		resp.RetCode = entry.RetCode
		return resp, nil
	}
	obs.RecordCacheEvent("miss")

	deadline, err := c.policies.OpenDeadline(ctx, req.BudgetMS)
	if err != nil {
		resp.RetCode = "BAD_REQUEST"
		return resp, fmt.Errorf("%w: %v", api.ErrBadRequest, err)
	}
	defer deadline.Cancel()

	start := time.Now()
	tracker := policy.NewTracker(req.Budget)

	pool, episode, failed := c.gather(deadline.Context(), req, tracker, &resp)
	episode.Counter = tracker

	if failed == len(req.Queries) {
		resp.RetCode = "DEGRADED"
		resp.Degraded = true
		resp.Usage = tracker.Snapshot()
		resp.Timings.TotalMS = time.Since(start).Milliseconds()
		return resp, api.ErrUpstreamOutage
	}

	components := make(map[string]map[string]float64, len(strategies))
	for _, s := range strategies {
		sStart := time.Now()
		components[s.Name()] = s.Score(deadline.Context(), pool, episode)
		obs.RecordStrategyDuration(s.Name(), time.Since(sStart))
	}

	fused := rank.Fuse(pool, components, req.Weights)
	var selected []rank.Scored
	if req.Diversity {
		base := make(map[string]float64, len(fused))
		for _, item := range fused {
			base[item.Key] = item.Score
		}
		selected = rank.NewGreedyDiversity(c.diversityLambda).Select(pool, base, tracker.ClampOutput(req.Budget))
	} else {
		selected = rank.Select(fused, tracker.ClampOutput(req.Budget))
	}

	tracker.RecordReturned(len(selected))
	obs.RecordDocumentsReturned(len(selected))
	c.metrics.ObserveEpisode(time.Since(start))

	resp.Items = toAPIItems(selected)
	resp.Usage = tracker.Snapshot()
	resp.Timings.TotalMS = time.Since(start).Milliseconds()
	resp.Degraded = failed > 0 || deadline.Hit()
	if resp.Degraded {
		resp.RetCode = "DEGRADED"
	}

	c.cache.Set(cacheKey, CacheEntry{
		Items:    cloneItems(resp.Items),
		Usage:    resp.Usage,
		TotalMS:  resp.Timings.TotalMS,
		Degraded: resp.Degraded,
		RetCode:  resp.RetCode,
	})

	return resp, nil
}

// gather fans the retrieval queries out concurrently, then fills the pool
// sequentially in query-index order so first-seen dedup stays deterministic.
func (c *Controller) gather(ctx context.Context, req api.AggregateRequest, tracker *policy.Tracker, resp *api.ResponseV1) (*passage.Pool, rank.Episode, int) {
	type queryResult struct {
		passages []passage.Passage
		tookMS   int64
		err      error
	}

	retrieverPolicy, _ := c.policies.Source(retrieverSource)
	results := make([]queryResult, len(req.Queries))

	var wg sync.WaitGroup
	for i, query := range req.Queries {
		wg.Add(1)
		go func(idx int, q string) {
			defer wg.Done()
			qStart := time.Now()
			tracker.RecordQuery()
			err := retrieverPolicy.Execute(ctx, func(callCtx context.Context) error {
				passages, rerr := c.retriever.Retrieve(callCtx, q, req.K)
				if rerr != nil {
					return rerr
				}
				for j := range passages {
					passages[j].SourceQuery = idx
					passages[j].Rank = j
				}
				results[idx].passages = passages
				return nil
			})
			results[idx].tookMS = time.Since(qStart).Milliseconds()
			results[idx].err = err
		}(i, query)
	}
	wg.Wait()

	pool := passage.NewPool()
	listSizes := make([]int, len(req.Queries))
	failed := 0
	for i, res := range results {
		resp.Timings.PerQuery[req.Queries[i]] = res.tookMS
		if res.err != nil {
			failed++
			obs.RecordUpstreamError(retrieverSource, errorCode(res.err))
			c.logger.Warn("retrieval query failed",
				zap.Int("query_index", i),
				zap.String("query", req.Queries[i]),
				zap.Error(res.err),
			)
			continue
		}
		listSizes[i] = len(res.passages)
		for _, psg := range res.passages {
			pool.Insert(psg)
		}
	}

	episode := rank.Episode{
		Claim:     req.Claim,
		Entities:  req.Entities,
		ListSizes: listSizes,
	}
	return pool, episode, failed
}

func (c *Controller) buildStrategies(names []string) ([]rank.Strategy, error) {
	out := make([]rank.Strategy, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		switch name {
		case rank.StrategyPositionDecay:
			out = append(out, rank.PositionDecay{})
		case rank.StrategyRRF:
			out = append(out, rank.NewRRF(rank.DefaultRRFK))
		case rank.StrategyCrossQuery:
			out = append(out, rank.NewCrossQuery(rank.DefaultRRFK))
		case rank.StrategyBM25:
			out = append(out, rank.NewBM25(0, 0))
		case rank.StrategyEntityOverlap:
			out = append(out, rank.NewEntityOverlap(0, 0, 0))
		case rank.StrategyPointwise:
			out = append(out, rank.NewPointwise(c.guardedJudge(), judge.DefaultRange))
		case rank.StrategyListwise:
			out = append(out, rank.NewListwise(c.guardedJudge(), 0, 0, 0))
		default:
			return nil, fmt.Errorf("unknown strategy %q", name)
		}
	}
	return out, nil
}

// guardedJudge wraps the configured judge with the judge source policy so
// every call picks up the timeout, rate limit, and circuit breaker. A nil
// judge stays nil so strategies take their neutral path.
func (c *Controller) guardedJudge() judge.Judge {
	if c.judge == nil {
		return nil
	}
	judgePolicy, _ := c.policies.Source(judgeSource)
	return judge.Func(func(ctx context.Context, p judge.Prompt) (judge.Verdict, error) {
		var verdict judge.Verdict
		err := judgePolicy.Execute(ctx, func(callCtx context.Context) error {
			var jerr error
			verdict, jerr = c.judge.Judge(callCtx, p)
			return jerr
		})
		if err != nil {
			obs.RecordUpstreamError(judgeSource, errorCode(err))
			c.logger.Warn("judge call failed", zap.Error(err))
		}
		return verdict, err
	})
}

// Ping validates upstream readiness.
func (c *Controller) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	return c.retriever.Ping(ctx)
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, policy.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, policy.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

func toAPIItems(items []rank.Scored) []api.Item {
	if len(items) == 0 {
		return nil
	}
	out := make([]api.Item, 0, len(items))
	for _, it := range items {
		out = append(out, api.Item{
			Title:       it.Passage.Title,
			Content:     it.Passage.Content,
			Score:       it.Score,
			Components:  it.Components,
			SourceQuery: it.Passage.SourceQuery,
		})
	}
	return out
}

func cloneItems(items []api.Item) []api.Item {
	if len(items) == 0 {
		return nil
	}
	out := make([]api.Item, len(items))
	copy(out, items)
	return out
}
