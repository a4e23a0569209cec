package policy

import (
	"context"
	"fmt"
)

// Controller groups the per-source policies behind a single handle and opens
// deadline-bound contexts for individual episodes.
type Controller struct {
	defaultBudgetMS int
	sources         map[string]*SourcePolicy
	metrics         *Metrics
}

// ControllerConfig groups the top-level policy configuration.
type ControllerConfig struct {
	// DefaultBudgetMS applies when an episode does not carry its own time
	// budget. Zero disables the deadline.
	DefaultBudgetMS int
	Sources         []SourceConfig
}

// NewController creates a policy controller with the provided configuration.
func NewController(cfg ControllerConfig, metrics *Metrics) (*Controller, error) {
	if cfg.DefaultBudgetMS < 0 {
		return nil, ErrInvalidBudget
	}

	sourcePolicies := make(map[string]*SourcePolicy, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		policy, err := NewSourcePolicy(sc, metrics)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", sc.Name, err)
		}
		sourcePolicies[sc.Name] = policy
	}

	return &Controller{
		defaultBudgetMS: cfg.DefaultBudgetMS,
		sources:         sourcePolicies,
		metrics:         metrics,
	}, nil
}

// OpenDeadline binds one episode's time budget to the parent context. A zero
// budgetMS falls back to the configured default.
func (c *Controller) OpenDeadline(parent context.Context, budgetMS int) (*Deadline, error) {
	if budgetMS == 0 {
		budgetMS = c.defaultBudgetMS
	}
	return NewDeadline(parent, budgetMS, c.metrics)
}

// Source returns the policy for the requested source.
func (c *Controller) Source(name string) (*SourcePolicy, bool) {
	policy, ok := c.sources[name]
	return policy, ok
}

// Metrics returns the metrics collector.
func (c *Controller) Metrics() *Metrics {
	return c.metrics
}
