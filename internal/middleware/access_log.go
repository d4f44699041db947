package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/patrickwarner/bannerforge/internal/observability"
)

// WithAccessLog writes one line per completed request using the request-scoped
// logger. Server errors are always logged; other responses only when sampled.
// It must run inside WithTraceLogger.
func WithAccessLog(fallback *zap.Logger, sampler *observability.Sampler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status < http.StatusInternalServerError && !sampler.Sample() {
				return
			}
			LoggerFromRequest(r, fallback).Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
