//go:build !nometrics

package obs

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

var (
	setupOnce sync.Once
	shutdown  = func(context.Context) error { return nil }
)

var (
	aggregateRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rank_aggregator_requests_total",
		Help: "Total aggregate requests by return code.",
	}, []string{"code"})
	aggregateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rank_aggregator_request_duration_ms",
		Help:    "Histogram of aggregate request latency in ms.",
		Buckets: prometheus.ExponentialBuckets(5, 2, 8),
	})
	strategyDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rank_aggregator_strategy_duration_ms",
		Help:    "Histogram of per-strategy scoring latency in ms.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	}, []string{"strategy"})
	upstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rank_aggregator_upstream_errors_total",
		Help: "Count of upstream errors grouped by source and code.",
	}, []string{"source", "code"})
	documentsReturned = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rank_aggregator_documents_returned",
		Help:    "Histogram of documents returned per aggregate request.",
		Buckets: prometheus.LinearBuckets(0, 3, 8),
	})
	cacheEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rank_aggregator_cache_events_total",
		Help: "Cache hits and misses for aggregate responses.",
	}, []string{"event"})
)

// ObserveAggregateRequest records request-level metrics, tagging the latency
// sample with the trace id as an exemplar when one is present.
func ObserveAggregateRequest(code string, duration time.Duration, traceID string) {
	aggregateRequests.WithLabelValues(code).Inc()
	if eo, ok := aggregateDuration.(prometheus.ExemplarObserver); ok && traceID != "" {
		eo.ObserveWithExemplar(
			float64(duration.Milliseconds()),
			prometheus.Labels{"trace_id": traceID},
		)
		return
	}
	aggregateDuration.Observe(float64(duration.Milliseconds()))
}

// RecordStrategyDuration observes the scoring latency for one strategy.
func RecordStrategyDuration(strategy string, duration time.Duration) {
	strategyDuration.WithLabelValues(strategy).Observe(float64(duration.Milliseconds()))
}

// RecordUpstreamError increments the error counter for a source/code combination.
func RecordUpstreamError(source, code string) {
	upstreamErrors.WithLabelValues(source, code).Inc()
}

// RecordDocumentsReturned observes how many documents one request produced.
func RecordDocumentsReturned(n int) {
	documentsReturned.Observe(float64(n))
}

// RecordCacheEvent counts a cache hit or miss.
func RecordCacheEvent(event string) {
	cacheEvents.WithLabelValues(event).Inc()
}

// InitTracer sets up a minimal OpenTelemetry tracer provider.
func InitTracer(serviceName string) (func(context.Context) error, error) {
	var initErr error
	setupOnce.Do(func() {
		res, err := resource.New(context.Background(),
			resource.WithAttributes(
				semconv.ServiceName(serviceName),
			),
		)
		if err != nil {
			initErr = err
			return
		}

		provider := sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.3))),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(provider)
		shutdown = provider.Shutdown
	})
	return shutdown, initErr
}
