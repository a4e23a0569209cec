package controller

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/searchforge/rank_aggregator/internal/api"
	"github.com/searchforge/rank_aggregator/policy"
)

// CacheEntry captures cached response pieces.
type CacheEntry struct {
	Items    []api.Item
	Usage    policy.Usage
	TotalMS  int64
	Degraded bool
	RetCode  string
	storedAt time.Time
}

// Cache is a lightweight in-memory cache with TTL.
type Cache struct {
	ttl   time.Duration
	mu    sync.RWMutex
	store map[string]CacheEntry
}

// NewCache returns a cache; zero ttl disables caching.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:   ttl,
		store: make(map[string]CacheEntry),
	}
}

// Get retrieves an entry if still fresh.
func (c *Cache) Get(key string) (CacheEntry, bool) {
	if c == nil || c.ttl <= 0 {
		return CacheEntry{}, false
	}

	c.mu.RLock()
	entry, ok := c.store[key]
	c.mu.RUnlock()
	if !ok {
		return CacheEntry{}, false
	}
	if time.Since(entry.storedAt) > c.ttl {
		c.mu.Lock()
		delete(c.store, key)
		c.mu.Unlock()
		return CacheEntry{}, false
	}
	return entry, true
}

// Set stores an entry.
func (c *Cache) Set(key string, entry CacheEntry) {
	if c == nil || c.ttl <= 0 {
		return
	}
	entry.storedAt = time.Now()
	c.mu.Lock()
	c.store[key] = entry
	c.mu.Unlock()
}

// BuildCacheKey hashes the request parameters that influence the ranked
// output. Entities and weights are part of the key because they change
// strategy scores.
func BuildCacheKey(req api.AggregateRequest, strategies []string, policyVersion string) string {
	payload := map[string]any{
		"claim":          req.Claim,
		"queries":        req.Queries,
		"k":              req.K,
		"budget":         req.Budget,
		"entities":       req.Entities,
		"strategies":     strategies,
		"weights":        req.Weights,
		"diversity":      req.Diversity,
		"policy_version": policyVersion,
	}
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
