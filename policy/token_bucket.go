package policy

import (
	"sync"
	"time"
)

// TokenBucket is a token bucket rate limiter guarding calls to an upstream
// collaborator. A nil bucket allows everything.
type TokenBucket struct {
	capacity     int
	tokens       float64
	refillAmount float64
	refillEvery  time.Duration
	lastRefill   time.Time
	mu           sync.Mutex
}

// NewTokenBucket constructs a bucket that starts full and refills
// refillAmount tokens every refillEvery. Invalid parameters yield nil.
func NewTokenBucket(capacity, refillAmount int, refillEvery time.Duration) *TokenBucket {
	if capacity <= 0 || refillAmount <= 0 || refillEvery <= 0 {
		return nil
	}
	return &TokenBucket{
		capacity:     capacity,
		tokens:       float64(capacity),
		refillAmount: float64(refillAmount),
		refillEvery:  refillEvery,
		lastRefill:   time.Now(),
	}
}

// Allow consumes one token when available.
func (b *TokenBucket) Allow(now time.Time) bool {
	if b == nil {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(now)
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (b *TokenBucket) refill(now time.Time) {
	if now.Before(b.lastRefill) {
		// Clock went backwards; restart the refill window.
		b.lastRefill = now
		return
	}

	elapsed := now.Sub(b.lastRefill)
	if elapsed < b.refillEvery {
		return
	}

	units := float64(elapsed) / float64(b.refillEvery)
	b.tokens += units * b.refillAmount
	if b.tokens > float64(b.capacity) {
		b.tokens = float64(b.capacity)
	}
	b.lastRefill = now
}
