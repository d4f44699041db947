package api

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/patrickwarner/bannerforge/internal/analytics"
	"github.com/patrickwarner/bannerforge/internal/config"
	"github.com/patrickwarner/bannerforge/internal/db"
	"github.com/patrickwarner/bannerforge/internal/editor"
	"github.com/patrickwarner/bannerforge/internal/models"
	"github.com/patrickwarner/bannerforge/internal/observability"
	"github.com/patrickwarner/bannerforge/internal/storage"
)

func testConfig() config.Config {
	return config.Config{
		RenderCacheTTL:      time.Minute,
		MaxBannerKB:         150,
		AssetMaxDimension:   600,
		AssetQuality:        0.6,
		MaxUploadBytes:      1 << 20,
		ExportConcurrency:   2,
		ExportTimeout:       5 * time.Second,
		RateLimitEnabled:    true,
		RateLimitCapacity:   10,
		RateLimitRefillRate: 1,
	}
}

func newTestServer(t *testing.T, cfg config.Config) (*Server, *observability.MockMetricsRegistry) {
	t.Helper()
	metrics := &observability.MockMetricsRegistry{}
	logger := zaptest.NewLogger(t)
	s := NewServer(logger, metrics, cfg)
	var mu sync.Mutex
	n := 0
	s.Editor = editor.NewStore(logger, editor.WithIDGenerator(func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}))
	return s, metrics
}

func do(t *testing.T, h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func projectJSON(t *testing.T, state models.AdState) []byte {
	t.Helper()
	data, err := models.EncodeProject(state)
	require.NoError(t, err)
	return data
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	s.Backends["redis"] = stubPinger{}
	h := s.Routes()

	rec := do(t, h, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	s.Backends["postgres"] = stubPinger{err: errors.New("connection refused")}
	rec = do(t, h, "GET", "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body struct {
		Status   string            `json:"status"`
		Backends map[string]string `json:"backends"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "ok", body.Backends["redis"])
	assert.Equal(t, "connection refused", body.Backends["postgres"])
}

func TestSizesAndPresets(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	h := s.Routes()

	rec := do(t, h, "GET", "/api/sizes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sizes []struct {
		Key string `json:"key"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sizes))
	require.Len(t, sizes, len(models.AvailableSizes))
	assert.Equal(t, models.AvailableSizes[0].Key(), sizes[0].Key)

	rec = do(t, h, "GET", "/api/presets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var presets []models.AnimationPreset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &presets))
	assert.Equal(t, models.AnimationPresets, presets)
}

func TestRender_NoCache(t *testing.T) {
	s, metrics := newTestServer(t, testConfig())
	mock := analytics.NewMockAnalytics()
	s.Analytics = mock
	state := models.NewDefaultState("v1", "Spring", "f1")

	rec := do(t, s.Routes(), "POST", "/api/render?size=728x90", projectJSON(t, state))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "<!DOCTYPE html>"))
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, cacheBypass, rec.Header().Get("X-Render-Cache"))
	assert.Equal(t, 1, metrics.Count("renders:728x90"))
	assert.Equal(t, 1, metrics.Count("requests:/api/render:200"))

	events := mock.Recorded(analytics.EventRender)
	require.Len(t, events, 1)
	assert.Equal(t, "v1", events[0].VariationID)
	assert.Equal(t, []string{"728x90"}, events[0].Sizes)
}

func TestRender_DefaultsToFirstSelectedSize(t *testing.T) {
	s, metrics := newTestServer(t, testConfig())
	state := models.NewDefaultState("v1", "Spring", "f1")

	rec := do(t, s.Routes(), "POST", "/api/render", projectJSON(t, state))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, metrics.Count("renders:300x250"))

	state.SelectedSizes = nil
	rec = do(t, s.Routes(), "POST", "/api/render", projectJSON(t, state))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRender_Cache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	s, metrics := newTestServer(t, testConfig())
	s.Cache = &db.RedisStore{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()}), Ctx: context.Background()}
	h := s.Routes()
	body := projectJSON(t, models.NewDefaultState("v1", "Spring", "f1"))

	first := do(t, h, "POST", "/api/render?size=300x250", body)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, cacheMiss, first.Header().Get("X-Render-Cache"))

	second := do(t, h, "POST", "/api/render?size=300x250", body)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, cacheHit, second.Header().Get("X-Render-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, metrics.Count("render_cache:miss"))
	assert.Equal(t, 1, metrics.Count("render_cache:hit"))
}

func TestRender_BadInput(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	h := s.Routes()
	body := projectJSON(t, models.NewDefaultState("v1", "Spring", "f1"))

	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/api/render?size=wide", body).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/api/render", []byte(`{"name":"no frames"}`)).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/api/render", []byte(`not json`)).Code)
}

func TestRender_BodyLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploadBytes = 64
	s, _ := newTestServer(t, cfg)
	rec := do(t, s.Routes(), "POST", "/api/render", projectJSON(t, models.NewDefaultState("v1", "Spring", "f1")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestValidateHandler(t *testing.T) {
	s, metrics := newTestServer(t, testConfig())
	mock := analytics.NewMockAnalytics()
	s.Analytics = mock
	h := s.Routes()

	state := models.NewDefaultState("v1", "Spring", "f1")
	rec := do(t, h, "POST", "/api/validate", projectJSON(t, state))
	require.Equal(t, http.StatusOK, rec.Code)
	var res struct {
		IsValid bool     `json:"isValid"`
		Errors  []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.IsValid)

	state.Frames[0].Copy.Headline = ""
	rec = do(t, h, "POST", "/api/validate", projectJSON(t, state))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.IsValid)
	assert.Contains(t, res.Errors, "Frame 1: Headline is required.")

	assert.Equal(t, 1, metrics.Count("validations:valid"))
	assert.Equal(t, 1, metrics.Count("validations:invalid"))
	events := mock.Recorded(analytics.EventValidate)
	require.Len(t, events, 2)
	assert.Equal(t, "invalid", events[1].Outcome)
}

func TestExport_SingleProject(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	mock := analytics.NewMockAnalytics()
	s.Analytics = mock

	rec := do(t, s.Routes(), "POST", "/api/export", projectJSON(t, models.NewDefaultState("v1", "Spring", "f1")))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, storage.ContentTypeZip, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".zip")

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "index.html")

	events := mock.Recorded(analytics.EventExport)
	require.Len(t, events, 1)
	assert.Equal(t, "ok", events[0].Outcome)
	assert.Equal(t, int32(1), events[0].Units)
}

func TestExport_Variations(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	a := models.NewDefaultState("a", "Blue", "fa")
	b := models.NewDefaultState("b", "Red", "fb")
	b.SelectedSizes = []string{"300x250", "728x90"}
	body, err := json.Marshal(map[string]any{"variations": []models.AdState{a, b}, "activeVariationId": "b"})
	require.NoError(t, err)

	rec := do(t, s.Routes(), "POST", "/api/export", body)
	require.Equal(t, http.StatusOK, rec.Code)
	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	var units []string
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, ".zip") {
			units = append(units, f.Name)
		}
	}
	assert.ElementsMatch(t, []string{"Blue/300x250.zip", "Red/300x250.zip", "Red/728x90.zip"}, units)
}

func TestExport_NoSizes(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	mock := analytics.NewMockAnalytics()
	s.Analytics = mock
	state := models.NewDefaultState("v1", "Spring", "f1")
	state.SelectedSizes = []string{}

	rec := do(t, s.Routes(), "POST", "/api/export", projectJSON(t, state))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	events := mock.Recorded(analytics.EventExport)
	require.Len(t, events, 1)
	assert.Equal(t, "error", events[0].Outcome)
}

func TestExport_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitCapacity = 1
	s, metrics := newTestServer(t, cfg)
	h := s.Routes()
	body := projectJSON(t, models.NewDefaultState("v1", "Spring", "f1"))

	require.Equal(t, http.StatusOK, do(t, h, "POST", "/api/export", body).Code)
	rec := do(t, h, "POST", "/api/export", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, 1, metrics.Count("ratelimit_hits:192.0.2.1"))
}

func TestExport_Store(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	h := s.Routes()
	body := projectJSON(t, models.NewDefaultState("v1", "Spring", "f1"))

	rec := do(t, h, "POST", "/api/export?store=true", body)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	archives, err := storage.NewLocalStorage(t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)
	s.Archives = archives

	rec = do(t, h, "POST", "/api/export?store=true", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Key  string `json:"key"`
		Name string `json:"name"`
		Size int    `json:"size"`
		URL  string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "/api/exports/"+resp.Key, resp.URL)

	dl := do(t, h, "GET", resp.URL, nil)
	require.Equal(t, http.StatusOK, dl.Code)
	assert.Equal(t, resp.Size, dl.Body.Len())
	assert.Contains(t, dl.Header().Get("Content-Disposition"), resp.Name)

	missing := do(t, h, "GET", "/api/exports/6f1f7c1e-8d3a-4a55-9a51-4f3f0a2b9c10/gone.zip", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "GET", "/api/exports/nope/gone.zip", nil).Code)

	assert.Equal(t, http.StatusNoContent, do(t, h, "DELETE", resp.URL, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, "GET", resp.URL, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, "DELETE", resp.URL, nil).Code)
}

func TestStatsHandler(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	s, _ := newTestServer(t, testConfig())
	s.Cache = &db.RedisStore{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()}), Ctx: context.Background()}
	h := s.Routes()

	require.Equal(t, http.StatusOK, do(t, h, "POST", "/api/export", projectJSON(t, models.NewDefaultState("v1", "Spring", "f1"))).Code)

	rec := do(t, h, "GET", "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		ExportsToday int64             `json:"exports_today"`
		RateLimits   map[string]string `json:"rate_limits"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(1), stats.ExportsToday)
	assert.Contains(t, stats.RateLimits, "192.0.2.1")
}

func TestExport_SignedDownload(t *testing.T) {
	cfg := testConfig()
	cfg.DownloadSecret = "s3cret"
	cfg.DownloadTTL = time.Hour
	s, _ := newTestServer(t, cfg)
	archives, err := storage.NewLocalStorage(t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)
	s.Archives = archives
	h := s.Routes()

	rec := do(t, h, "POST", "/api/export?store=true", projectJSON(t, models.NewDefaultState("v1", "Spring", "f1")))
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Key string `json:"key"`
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.URL, "?token=")

	assert.Equal(t, http.StatusOK, do(t, h, "GET", resp.URL, nil).Code)
	assert.Equal(t, http.StatusForbidden, do(t, h, "GET", "/api/exports/"+resp.Key, nil).Code)
	assert.Equal(t, http.StatusForbidden, do(t, h, "GET", resp.URL+"x", nil).Code)

	assert.Equal(t, http.StatusForbidden, do(t, h, "DELETE", "/api/exports/"+resp.Key, nil).Code)
	assert.Equal(t, http.StatusOK, do(t, h, "GET", resp.URL, nil).Code, "a refused delete keeps the archive")

	s.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	assert.Equal(t, http.StatusForbidden, do(t, h, "GET", resp.URL, nil).Code)
}
