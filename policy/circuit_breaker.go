package policy

import (
	"sync"
	"time"
)

// CircuitState represents the state of the circuit breaker.
type CircuitState int

const (
	// CircuitClosed allows all traffic.
	CircuitClosed CircuitState = iota
	// CircuitHalfOpen allows limited traffic to probe recovery.
	CircuitHalfOpen
	// CircuitOpen blocks all traffic.
	CircuitOpen
)

type circuitEvent struct {
	timestamp time.Time
	success   bool
}

// CircuitBreakerConfig configures the circuit breaker behaviour.
type CircuitBreakerConfig struct {
	Window               time.Duration
	FailureRateThreshold float64
	MinSamples           int
	Cooldown             time.Duration
	HalfOpenMaxCalls     int
}

// CircuitBreaker implements a rolling-window circuit breaker with half-open
// probing, isolating a flaky retriever or judge endpoint from every episode
// in flight.
type CircuitBreaker struct {
	cfg     CircuitBreakerConfig
	source  string
	metrics *Metrics

	mu                sync.Mutex
	state             CircuitState
	lastStateChange   time.Time
	events            []circuitEvent
	halfOpenAttempts  int
	halfOpenSuccesses int
}

// NewCircuitBreaker constructs a breaker for the named source.
func NewCircuitBreaker(source string, cfg CircuitBreakerConfig, metrics *Metrics) *CircuitBreaker {
	cb := &CircuitBreaker{
		cfg:     cfg,
		source:  source,
		metrics: metrics,
		state:   CircuitClosed,
	}
	metrics.SetCircuitState(source, CircuitClosed)
	return cb
}

// Allow reports whether the circuit permits a call at the given time.
func (c *CircuitBreaker) Allow(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.refreshState(now)

	switch c.state {
	case CircuitOpen:
		return false
	case CircuitHalfOpen:
		if c.cfg.HalfOpenMaxCalls > 0 && c.halfOpenAttempts >= c.cfg.HalfOpenMaxCalls {
			return false
		}
		c.halfOpenAttempts++
	}
	return true
}

// Record registers the outcome of a call.
func (c *CircuitBreaker) Record(now time.Time, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = append(c.events, circuitEvent{timestamp: now, success: success})
	c.prune(now)
	c.refreshState(now)

	if c.state != CircuitHalfOpen {
		return
	}
	if !success {
		c.transition(CircuitOpen, now)
		c.resetHalfOpen()
		return
	}
	c.halfOpenSuccesses++
	if c.cfg.HalfOpenMaxCalls > 0 && c.halfOpenSuccesses >= c.cfg.HalfOpenMaxCalls {
		c.transition(CircuitClosed, now)
		c.resetHalfOpen()
	}
}

// State returns the current state.
func (c *CircuitBreaker) State() CircuitState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *CircuitBreaker) prune(now time.Time) {
	windowStart := now.Add(-c.cfg.Window)
	idx := 0
	for _, evt := range c.events {
		if !evt.timestamp.Before(windowStart) {
			break
		}
		idx++
	}
	if idx > 0 {
		c.events = c.events[idx:]
	}
}

func (c *CircuitBreaker) refreshState(now time.Time) {
	switch c.state {
	case CircuitOpen:
		if now.Sub(c.lastStateChange) >= c.cfg.Cooldown {
			c.transition(CircuitHalfOpen, now)
			c.resetHalfOpen()
		}
		return
	case CircuitHalfOpen:
		// Transitions out of half-open happen in Record.
		return
	}

	c.prune(now)
	total := len(c.events)
	if total == 0 || total < c.cfg.MinSamples {
		return
	}

	failures := 0
	for _, evt := range c.events {
		if !evt.success {
			failures++
		}
	}
	if float64(failures)/float64(total) >= c.cfg.FailureRateThreshold {
		c.transition(CircuitOpen, now)
	}
}

func (c *CircuitBreaker) transition(state CircuitState, now time.Time) {
	if c.state == state {
		return
	}
	c.state = state
	c.lastStateChange = now
	c.metrics.SetCircuitState(c.source, state)
}

func (c *CircuitBreaker) resetHalfOpen() {
	c.halfOpenAttempts = 0
	c.halfOpenSuccesses = 0
}
