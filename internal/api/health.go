package api

import (
	"context"
	"net/http"
	"time"

	"github.com/patrickwarner/bannerforge/internal/models"
)

// HealthHandler reports "ok" when every configured backend answers a ping and
// "degraded" with a 503 otherwise.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	backends := make(map[string]string, len(s.Backends))
	for name, b := range s.Backends {
		if err := b.Ping(ctx); err != nil {
			backends[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		backends[name] = "ok"
	}
	body := map[string]any{"status": "ok", "backends": backends}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	writeJSON(w, status, body)
}

// SizesHandler lists the standard ad sizes.
func (s *Server) SizesHandler(w http.ResponseWriter, r *http.Request) {
	type size struct {
		Key string `json:"key"`
		models.AdSize
	}
	out := make([]size, len(models.AvailableSizes))
	for i, sz := range models.AvailableSizes {
		out[i] = size{Key: sz.Key(), AdSize: sz}
	}
	writeJSON(w, http.StatusOK, out)
}

// PresetsHandler lists the built-in animation presets.
func (s *Server) PresetsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.AnimationPresets)
}
