package db

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickwarner/bannerforge/internal/models"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(s.Close)
	store := &RedisStore{
		Client: redis.NewClient(&redis.Options{Addr: s.Addr()}),
		Ctx:    context.Background(),
	}
	return s, store
}

func TestRenderKey(t *testing.T) {
	state := models.NewDefaultState("v1", "A", "f1")

	k1, err := RenderKey(state, 300, 250, nil)
	require.NoError(t, err)
	assert.Regexp(t, `^render:300x250:[0-9a-f]{16}$`, k1)

	replayed := state.Clone()
	replayed.AnimationKey = 7
	replayed.AssetLibrary = append(replayed.AssetLibrary, models.AssetItem{ID: "x"})
	k2, err := RenderKey(replayed, 300, 250, nil)
	require.NoError(t, err)
	assert.Equal(t, k1, k2, "fields outside the document do not change the key")

	edited := state.Clone()
	edited.Frames[0].Copy.Headline = "Different"
	k3, err := RenderKey(edited, 300, 250, nil)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)

	k4, err := RenderKey(state, 728, 90, nil)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k4)

	k5, err := RenderKey(state, 300, 250, map[string]string{"data:a": "assets/img_1.png"})
	require.NoError(t, err)
	assert.NotEqual(t, k1, k5)
}

func TestRenderThrough(t *testing.T) {
	s, store := setupTestRedis(t)
	ctx := context.Background()
	calls := 0
	fn := func() string {
		calls++
		return "<html></html>"
	}

	html, hit, err := store.RenderThrough(ctx, "render:k", time.Minute, fn)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "<html></html>", html)

	html, hit, err = store.RenderThrough(ctx, "render:k", time.Minute, fn)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "<html></html>", html)
	assert.Equal(t, 1, calls)

	s.FastForward(2 * time.Minute)
	_, hit, err = store.RenderThrough(ctx, "render:k", time.Minute, fn)
	require.NoError(t, err)
	assert.False(t, hit, "entry expires after its ttl")
	assert.Equal(t, 2, calls)
}

func TestRenderThrough_RedisDown(t *testing.T) {
	store := &RedisStore{
		Client: redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1}),
		Ctx:    context.Background(),
	}

	html, hit, err := store.RenderThrough(context.Background(), "render:k", time.Minute, func() string { return "doc" })
	assert.Error(t, err)
	assert.False(t, hit)
	assert.Equal(t, "doc", html, "the document is still rendered")
}

func TestGetRender_Miss(t *testing.T) {
	_, store := setupTestRedis(t)
	html, ok, err := store.GetRender(context.Background(), "render:none")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, html)
}

func TestExportCounters(t *testing.T) {
	s, store := setupTestRedis(t)
	ctx := context.Background()
	day := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	n, err := store.ExportsOn(ctx, day)
	require.NoError(t, err)
	assert.Zero(t, n)

	for i := 1; i <= 3; i++ {
		n, err = store.IncrementExports(ctx, day)
		require.NoError(t, err)
		assert.Equal(t, int64(i), n)
	}
	n, err = store.ExportsOn(ctx, day.Add(5*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, 48*time.Hour, s.TTL("exports:2026-03-14"))

	n, err = store.ExportsOn(ctx, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPing(t *testing.T) {
	_, store := setupTestRedis(t)
	assert.NoError(t, store.Ping(context.Background()))
}
