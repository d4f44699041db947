package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/patrickwarner/bannerforge/internal/analytics"
	"github.com/patrickwarner/bannerforge/internal/db"
	"github.com/patrickwarner/bannerforge/internal/logic/render"
	"github.com/patrickwarner/bannerforge/internal/models"
	"github.com/patrickwarner/bannerforge/internal/observability"
)

// Render cache outcomes reported in metrics and the X-Render-Cache header.
const (
	cacheHit    = "hit"
	cacheMiss   = "miss"
	cacheBypass = "bypass"
	cacheError  = "error"
)

// RenderHandler returns the preview document of a project for one size.
// The size comes from ?size=WxH and defaults to the first selected size.
func (s *Server) RenderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := observability.Tracer("api").Start(r.Context(), "api.Render")
	defer span.End()

	state, err := s.decodeState(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	key := r.URL.Query().Get("size")
	if key == "" {
		if len(state.SelectedSizes) == 0 {
			s.writeError(w, r, fmt.Errorf("%w: no size selected", models.ErrInvalidSize))
			return
		}
		key = state.SelectedSizes[0]
	}
	width, height, err := models.ParseSizeKey(key)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	html, outcome := s.render(ctx, r, state, width, height)
	span.SetAttributes(attribute.String("size", key), attribute.String("cache", outcome))
	s.Metrics.IncrementRenders(key)
	s.Metrics.IncrementRenderCache(outcome)
	s.Metrics.RecordRenderBytes(len(html))
	s.record(ctx, analytics.Event{
		EventType:   analytics.EventRender,
		VariationID: state.ID,
		Sizes:       []string{key},
		Units:       1,
		Bytes:       int64(len(html)),
		Outcome:     outcome,
	})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Render-Cache", outcome)
	_, _ = w.Write([]byte(html))
}

// render produces the preview, going through the cache when one is configured.
func (s *Server) render(ctx context.Context, r *http.Request, state models.AdState, width, height int) (string, string) {
	fn := func() string { return render.RenderBanner(state, width, height, nil) }
	if s.Cache == nil {
		return fn(), cacheBypass
	}
	key, err := db.RenderKey(state, width, height, nil)
	if err != nil {
		s.logger(r).Warn("render cache key", zap.Error(err))
		return fn(), cacheBypass
	}
	html, hit, err := s.Cache.RenderThrough(ctx, key, s.Config.RenderCacheTTL, fn)
	switch {
	case err != nil:
		s.logger(r).Warn("render cache unavailable", zap.Error(err))
		return html, cacheError
	case hit:
		return html, cacheHit
	default:
		return html, cacheMiss
	}
}

// ValidateHandler checks a project against the export rules.
func (s *Server) ValidateHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := observability.Tracer("api").Start(r.Context(), "api.Validate")
	defer span.End()

	state, err := s.decodeState(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res := s.Validator.Validate(state)
	outcome := "valid"
	if !res.IsValid {
		outcome = "invalid"
	}
	span.SetAttributes(attribute.Bool("valid", res.IsValid), attribute.Int("warnings", len(res.Warnings)))
	s.record(ctx, analytics.Event{
		EventType:   analytics.EventValidate,
		VariationID: state.ID,
		Sizes:       state.SelectedSizes,
		Units:       int32(len(state.SelectedSizes)),
		Outcome:     outcome,
		Attributes: map[string]string{
			"errors":   strconv.Itoa(len(res.Errors)),
			"warnings": strconv.Itoa(len(res.Warnings)),
		},
	})
	writeJSON(w, http.StatusOK, res)
}

// eventCounter is implemented by analytics backends that can report totals.
type eventCounter interface {
	CountByType(ctx context.Context, since time.Time) (map[string]int64, error)
}

// StatsHandler reports today's export count, the last day of analytics events
// and the export rate limiter state. Sections whose backend is missing are omitted.
func (s *Server) StatsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := s.Now()
	out := map[string]any{}

	if s.Cache != nil {
		n, err := s.Cache.ExportsOn(ctx, now)
		if err != nil {
			s.logger(r).Warn("read export counter", zap.Error(err))
		} else {
			out["exports_today"] = n
		}
	}
	if c, ok := s.Analytics.(eventCounter); ok {
		counts, err := c.CountByType(ctx, now.Add(-24*time.Hour))
		if err != nil {
			s.logger(r).Warn("read event counts", zap.Error(err))
		} else {
			out["events_24h"] = counts
		}
	}
	limits := make(map[string]string)
	for client, st := range s.Limiter.GetStats() {
		limits[client] = st.String()
	}
	out["rate_limits"] = limits
	writeJSON(w, http.StatusOK, out)
}
