package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/patrickwarner/bannerforge/internal/models"
)

// RedisStore wraps a redis client and context for operations.
type RedisStore struct {
	Client *redis.Client
	Ctx    context.Context
}

// InitRedis initializes a Redis client and returns a RedisStore.
func InitRedis(addr string) (*RedisStore, error) {
	rs := &RedisStore{
		Client: redis.NewClient(&redis.Options{Addr: addr}),
		Ctx:    context.Background(),
	}

	// Add OpenTelemetry instrumentation to Redis client
	if err := redisotel.InstrumentTracing(rs.Client); err != nil {
		return nil, fmt.Errorf("failed to instrument redis tracing: %w", err)
	}

	if err := rs.Client.Ping(rs.Ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	zap.L().Info("Connected to Redis", zap.String("addr", addr))
	return rs, nil
}

// RenderKey identifies the document RenderBanner would produce for these inputs.
// Fields that never reach the output (active frame, replay key, asset library)
// are cleared first so edits to them keep hitting the same entry.
func RenderKey(state models.AdState, width, height int, rewrite map[string]string) (string, error) {
	s := state.Clone()
	s.ActiveFrameID = ""
	s.AnimationKey = 0
	s.AssetLibrary = nil

	doc, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode render key: %w", err)
	}
	h := xxhash.New()
	_, _ = h.Write(doc)
	keys := make([]string, 0, len(rewrite))
	for k := range rewrite {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		_, _ = h.WriteString("\x00" + k + "\x00" + rewrite[k])
	}
	return fmt.Sprintf("render:%s:%016x", models.SizeKey(width, height), h.Sum64()), nil
}

// GetRender returns a cached document. A miss is reported with ok=false and no error.
func (r *RedisStore) GetRender(ctx context.Context, key string) (string, bool, error) {
	html, err := r.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return html, true, nil
}

// SetRender caches a rendered document for ttl.
func (r *RedisStore) SetRender(ctx context.Context, key, html string, ttl time.Duration) error {
	return r.Client.Set(ctx, key, html, ttl).Err()
}

// RenderThrough returns the cached document for key, rendering and storing it on a
// miss. A cache failure never hides the document: fn still runs and the error is
// returned alongside its output.
func (r *RedisStore) RenderThrough(ctx context.Context, key string, ttl time.Duration, fn func() string) (html string, hit bool, err error) {
	html, hit, err = r.GetRender(ctx, key)
	if hit {
		return html, true, nil
	}
	html = fn()
	if err != nil {
		return html, false, fmt.Errorf("render cache get: %w", err)
	}
	if err := r.SetRender(ctx, key, html, ttl); err != nil {
		return html, false, fmt.Errorf("render cache set: %w", err)
	}
	return html, false, nil
}

// IncrementExports increments the export counter for the day of now.
// A 48h TTL is applied on first set. Returns the current count.
func (r *RedisStore) IncrementExports(ctx context.Context, now time.Time) (int64, error) {
	key := exportsKey(now)
	val, err := r.Client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if val == 1 {
		r.Client.Expire(ctx, key, 48*time.Hour)
	}
	return val, nil
}

// ExportsOn returns the number of exports recorded for the day of t.
func (r *RedisStore) ExportsOn(ctx context.Context, t time.Time) (int64, error) {
	n, err := r.Client.Get(ctx, exportsKey(t)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func exportsKey(t time.Time) string {
	return "exports:" + t.UTC().Format("2006-01-02")
}

// Ping reports whether Redis is reachable.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

// Close shuts down the Redis client.
func (r *RedisStore) Close() {
	if r != nil && r.Client != nil {
		if err := r.Client.Close(); err != nil {
			zap.L().Error("redis close", zap.Error(err))
		}
	}
}
