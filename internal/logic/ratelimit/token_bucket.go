// Package ratelimit throttles expensive banner operations (exports and asset
// uploads) per client with token buckets.
//
// A bucket allows bursts up to its capacity while holding the sustained rate to
// the refill rate. Exports are CPU-heavy zip builds, so a client that bursts a
// few bundles is fine but a loop hammering the endpoint is not.
package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket implements a thread-safe token bucket rate limiter.
//
// Example usage:
//
//	bucket := NewTokenBucket(5, 1) // 5 burst capacity, 1 token/second
//	if bucket.Allow() {
//	    // Build the export
//	}
type TokenBucket struct {
	capacity   int        // Maximum number of tokens the bucket can hold
	tokens     int        // Current number of tokens in the bucket
	refillRate int        // Number of tokens added per second
	lastRefill time.Time  // Last time tokens were added to the bucket
	lastUsed   time.Time  // Last call to Allow, used to evict idle buckets
	mu         sync.Mutex // Protects all bucket state
	hitCount   int64      // Number of requests that were rate limited
	totalCount int64      // Total number of requests processed

	now func() time.Time
}

// NewTokenBucket creates a full bucket with the given capacity and refill rate.
func NewTokenBucket(capacity, refillRate int) *TokenBucket {
	return newTokenBucket(capacity, refillRate, time.Now)
}

func newTokenBucket(capacity, refillRate int, now func() time.Time) *TokenBucket {
	t := now()
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		lastRefill: t,
		lastUsed:   t,
		now:        now,
	}
}

// Allow attempts to consume one token, refilling first from elapsed time.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.totalCount++

	now := tb.now()
	tb.lastUsed = now
	elapsed := now.Sub(tb.lastRefill)

	tokensToAdd := int(elapsed.Seconds() * float64(tb.refillRate))
	if tokensToAdd > 0 {
		tb.tokens = min(tb.capacity, tb.tokens+tokensToAdd)
		tb.lastRefill = now
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}

	tb.hitCount++
	return false
}

// RetryAfter estimates how long until the next token is available.
func (tb *TokenBucket) RetryAfter() time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	if tb.tokens > 0 || tb.refillRate <= 0 {
		return 0
	}
	per := time.Second / time.Duration(tb.refillRate)
	wait := per - tb.now().Sub(tb.lastRefill)
	if wait < 0 {
		return 0
	}
	return wait
}

// Stats returns how many requests were limited and how many were seen.
func (tb *TokenBucket) Stats() (hits, total int64) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.hitCount, tb.totalCount
}

func (tb *TokenBucket) idleSince() time.Time {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.lastUsed
}
