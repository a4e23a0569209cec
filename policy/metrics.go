//go:build !nometrics

package policy

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics wraps the policy-level Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	sourceLatency *prometheus.HistogramVec
	sourceErrRate *prometheus.GaugeVec
	episodeTotal  prometheus.Histogram
	circuitState  *prometheus.GaugeVec
	budgetHit     prometheus.Counter

	requestsMu sync.Mutex
	requests   map[string]*sourceRequestStats
}

type sourceRequestStats struct {
	success int
	fail    int
}

// MetricsOption allows customizing the metrics registry.
type MetricsOption func(*metricsConfig)

type metricsConfig struct {
	registerer prometheus.Registerer
	buckets    []float64
}

// WithRegisterer overrides the default Prometheus registerer.
func WithRegisterer(r prometheus.Registerer) MetricsOption {
	return func(cfg *metricsConfig) {
		cfg.registerer = r
	}
}

// WithLatencyBuckets overrides the default latency histogram buckets (in ms).
func WithLatencyBuckets(buckets []float64) MetricsOption {
	return func(cfg *metricsConfig) {
		cfg.buckets = buckets
	}
}

// NewMetrics constructs Metrics and registers the Prometheus collectors.
func NewMetrics(opts ...MetricsOption) *Metrics {
	cfg := metricsConfig{
		registerer: prometheus.DefaultRegisterer,
		buckets:    []float64{5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Metrics{
		sourceLatency: register(cfg.registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rank_aggregator_source_latency_ms",
			Help:    "Latency in milliseconds for each upstream source (retriever, judge).",
			Buckets: cfg.buckets,
		}, []string{"source"})),
		sourceErrRate: register(cfg.registerer, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rank_aggregator_source_error_rate",
			Help: "Rolling error rate for each upstream source.",
		}, []string{"source"})),
		episodeTotal: register(cfg.registerer, prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rank_aggregator_episode_latency_ms",
			Help:    "Total latency in milliseconds for one aggregation episode.",
			Buckets: cfg.buckets,
		})),
		circuitState: register(cfg.registerer, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rank_aggregator_circuit_state",
			Help: "Circuit breaker state per source. 0=closed, 1=half-open, 2=open.",
		}, []string{"source"})),
		budgetHit: register[prometheus.Counter](cfg.registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rank_aggregator_budget_hit_total",
			Help: "Total episodes that exhausted the configured time budget.",
		})),
		requests: make(map[string]*sourceRequestStats),
	}
	return m
}

// ObserveSource records the latency and error status for one source call.
func (m *Metrics) ObserveSource(source string, latency time.Duration, err error) {
	if m == nil {
		return
	}

	ms := float64(latency.Milliseconds())
	if ms < 0 {
		ms = 0
	}
	m.sourceLatency.WithLabelValues(source).Observe(ms)

	m.requestsMu.Lock()
	stats, ok := m.requests[source]
	if !ok {
		stats = &sourceRequestStats{}
		m.requests[source] = stats
	}
	if err != nil {
		stats.fail++
	} else {
		stats.success++
	}
	total := stats.fail + stats.success
	var rate float64
	if total > 0 {
		rate = float64(stats.fail) / float64(total)
	}
	m.requestsMu.Unlock()

	m.sourceErrRate.WithLabelValues(source).Set(rate)
}

// ObserveEpisode records the total latency of one aggregation episode.
func (m *Metrics) ObserveEpisode(latency time.Duration) {
	if m == nil {
		return
	}
	ms := float64(latency.Milliseconds())
	if ms < 0 {
		ms = 0
	}
	m.episodeTotal.Observe(ms)
}

// IncBudgetHit counts a time-budget exhaustion.
func (m *Metrics) IncBudgetHit() {
	if m == nil {
		return
	}
	m.budgetHit.Inc()
}

// SetCircuitState records the circuit breaker state for a source.
func (m *Metrics) SetCircuitState(source string, state CircuitState) {
	if m == nil {
		return
	}
	m.circuitState.WithLabelValues(source).Set(float64(state))
}

// register installs a collector, reusing the existing one when a duplicate
// registration races.
func register[T prometheus.Collector](registerer prometheus.Registerer, collector T) T {
	if registerer == nil {
		return collector
	}
	if err := registerer.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
			return collector
		}
		panic(err)
	}
	return collector
}
