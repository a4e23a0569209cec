//go:build nometrics

package policy

import "time"

// Metrics is a no-op under the nometrics build tag.
type Metrics struct{}

// MetricsOption is accepted and ignored under the nometrics build tag.
type MetricsOption func(*Metrics)

// WithRegisterer is a no-op under the nometrics build tag.
func WithRegisterer(_ any) MetricsOption { return func(*Metrics) {} }

// WithLatencyBuckets is a no-op under the nometrics build tag.
func WithLatencyBuckets(_ []float64) MetricsOption { return func(*Metrics) {} }

// NewMetrics returns a no-op Metrics.
func NewMetrics(_ ...MetricsOption) *Metrics { return &Metrics{} }

func (m *Metrics) ObserveSource(string, time.Duration, error) {}

func (m *Metrics) ObserveEpisode(time.Duration) {}

func (m *Metrics) IncBudgetHit() {}

func (m *Metrics) SetCircuitState(string, CircuitState) {}
