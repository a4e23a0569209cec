package policy

import (
	"testing"
	"time"
)

func TestTokenBucketRefills(t *testing.T) {
	bucket := NewTokenBucket(2, 1, 100*time.Millisecond)

	now := time.Now()
	if !bucket.Allow(now) || !bucket.Allow(now) {
		t.Fatal("expected initial capacity to be available")
	}
	if bucket.Allow(now) {
		t.Fatal("expected empty bucket to deny")
	}

	if !bucket.Allow(now.Add(150 * time.Millisecond)) {
		t.Fatal("expected refilled token to be available")
	}
}

func TestNilTokenBucketAllows(t *testing.T) {
	var bucket *TokenBucket
	if !bucket.Allow(time.Now()) {
		t.Fatal("expected nil bucket to allow")
	}
}
