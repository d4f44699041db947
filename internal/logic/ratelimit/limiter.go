package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/patrickwarner/bannerforge/internal/observability"
)

// ClientLimiter manages one token bucket per client.
//
// Buckets are created lazily on first access and dropped by Sweep once idle.
type ClientLimiter struct {
	buckets map[string]*TokenBucket       // Map of client key to token bucket
	mu      sync.RWMutex                  // Protects the buckets map
	config  Config                        // Rate limiting configuration
	metrics observability.MetricsRegistry // Metrics registry for tracking rate limiting activity
	now     func() time.Time
}

// Config holds the configuration for rate limiting.
type Config struct {
	Capacity   int  // Token bucket capacity (burst allowance)
	RefillRate int  // Tokens added per second (sustained rate)
	Enabled    bool // Whether rate limiting is active
}

// NewClientLimiter creates a limiter with the given configuration.
func NewClientLimiter(config Config, metrics observability.MetricsRegistry) *ClientLimiter {
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &ClientLimiter{
		buckets: make(map[string]*TokenBucket),
		config:  config,
		metrics: metrics,
		now:     time.Now,
	}
}

func (cl *ClientLimiter) bucket(client string) *TokenBucket {
	cl.mu.RLock()
	bucket, exists := cl.buckets[client]
	cl.mu.RUnlock()
	if exists {
		return bucket
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()
	if bucket, exists = cl.buckets[client]; !exists {
		bucket = newTokenBucket(cl.config.Capacity, cl.config.RefillRate, cl.now)
		cl.buckets[client] = bucket
	}
	return bucket
}

// Allow reports whether the client may run one more operation. It always
// returns true when rate limiting is disabled.
func (cl *ClientLimiter) Allow(client string) bool {
	if !cl.config.Enabled {
		return true
	}
	cl.metrics.IncrementRateLimitRequests(client)

	allowed := cl.bucket(client).Allow()
	if !allowed {
		cl.metrics.IncrementRateLimitHits(client)
	}
	return allowed
}

// RetryAfter estimates how long the client should wait before retrying.
func (cl *ClientLimiter) RetryAfter(client string) time.Duration {
	cl.mu.RLock()
	bucket, ok := cl.buckets[client]
	cl.mu.RUnlock()
	if !ok {
		return 0
	}
	return bucket.RetryAfter()
}

// Sweep drops buckets unused for longer than idle and returns how many were removed.
func (cl *ClientLimiter) Sweep(idle time.Duration) int {
	cutoff := cl.now().Add(-idle)
	cl.mu.Lock()
	defer cl.mu.Unlock()
	removed := 0
	for client, b := range cl.buckets {
		if b.idleSince().Before(cutoff) {
			delete(cl.buckets, client)
			removed++
		}
	}
	return removed
}

// GetStats returns a snapshot of rate limiting statistics per client.
func (cl *ClientLimiter) GetStats() map[string]RateLimitStats {
	cl.mu.RLock()
	defer cl.mu.RUnlock()

	stats := make(map[string]RateLimitStats, len(cl.buckets))
	for client, bucket := range cl.buckets {
		hits, total := bucket.Stats()
		hitRate := 0.0
		if total > 0 {
			hitRate = float64(hits) / float64(total)
		}
		stats[client] = RateLimitStats{
			Client:  client,
			Hits:    hits,
			Total:   total,
			HitRate: hitRate,
		}
	}
	return stats
}

// RateLimitStats contains statistics about rate limiting for a single client.
type RateLimitStats struct {
	Client  string  `json:"client"`
	Hits    int64   `json:"hits"`    // Number of rate limited requests
	Total   int64   `json:"total"`   // Total number of requests processed
	HitRate float64 `json:"hitRate"` // Share of requests rate limited (0.0-1.0)
}

// String returns a human-readable representation of the rate limit statistics.
func (rls RateLimitStats) String() string {
	return fmt.Sprintf("Client %s: %d/%d hits (%.2f%%)",
		rls.Client, rls.Hits, rls.Total, rls.HitRate*100)
}
