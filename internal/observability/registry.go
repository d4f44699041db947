package observability

import "time"

// MetricsRegistry provides an interface for recording application metrics.
// Components take it as a dependency instead of touching the global collectors.
type MetricsRegistry interface {
	// HTTP Request metrics
	IncrementRequests(endpoint, method, status string)
	RecordRequestLatency(endpoint, method string, duration time.Duration)

	// Render metrics
	IncrementRenders(size string)
	RecordRenderBytes(n int)
	IncrementRenderCache(outcome string)

	// Validation metrics
	IncrementValidations(outcome string)

	// Export metrics
	IncrementExports(kind string)
	RecordExportDuration(duration time.Duration)
	RecordExportBytes(n int)

	// Asset metrics
	IncrementAssetUploads(outcome string)

	// Rate limiting metrics
	IncrementRateLimitRequests(client string)
	IncrementRateLimitHits(client string)

	// Analytics metrics
	IncrementAnalyticsErrors()
}

// PrometheusRegistry implements MetricsRegistry using the global Prometheus collectors
type PrometheusRegistry struct{}

// NewPrometheusRegistry creates a new PrometheusRegistry
func NewPrometheusRegistry() *PrometheusRegistry {
	return &PrometheusRegistry{}
}

// HTTP Request metrics
func (r *PrometheusRegistry) IncrementRequests(endpoint, method, status string) {
	RequestCount.WithLabelValues(endpoint, method, status).Inc()
}

func (r *PrometheusRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {
	RequestLatency.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

// Render metrics
func (r *PrometheusRegistry) IncrementRenders(size string) {
	RenderCount.WithLabelValues(size).Inc()
}

func (r *PrometheusRegistry) RecordRenderBytes(n int) {
	RenderBytes.Observe(float64(n))
}

func (r *PrometheusRegistry) IncrementRenderCache(outcome string) {
	RenderCacheLookups.WithLabelValues(outcome).Inc()
}

// Validation metrics
func (r *PrometheusRegistry) IncrementValidations(outcome string) {
	ValidationCount.WithLabelValues(outcome).Inc()
}

// Export metrics
func (r *PrometheusRegistry) IncrementExports(kind string) {
	ExportCount.WithLabelValues(kind).Inc()
}

func (r *PrometheusRegistry) RecordExportDuration(duration time.Duration) {
	ExportDuration.Observe(duration.Seconds())
}

func (r *PrometheusRegistry) RecordExportBytes(n int) {
	ExportBytes.Observe(float64(n))
}

// Asset metrics
func (r *PrometheusRegistry) IncrementAssetUploads(outcome string) {
	AssetUploads.WithLabelValues(outcome).Inc()
}

// Rate limiting metrics
func (r *PrometheusRegistry) IncrementRateLimitRequests(client string) {
	RateLimitRequests.WithLabelValues(client).Inc()
}

func (r *PrometheusRegistry) IncrementRateLimitHits(client string) {
	RateLimitHits.WithLabelValues(client).Inc()
}

// Analytics metrics
func (r *PrometheusRegistry) IncrementAnalyticsErrors() {
	AnalyticsErrors.Inc()
}

// NoOpRegistry implements MetricsRegistry with no-op methods for testing
type NoOpRegistry struct{}

// NewNoOpRegistry creates a new NoOpRegistry
func NewNoOpRegistry() *NoOpRegistry {
	return &NoOpRegistry{}
}

func (r *NoOpRegistry) IncrementRequests(endpoint, method, status string)                    {}
func (r *NoOpRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}
func (r *NoOpRegistry) IncrementRenders(size string)                                         {}
func (r *NoOpRegistry) RecordRenderBytes(n int)                                              {}
func (r *NoOpRegistry) IncrementRenderCache(outcome string)                                  {}
func (r *NoOpRegistry) IncrementValidations(outcome string)                                  {}
func (r *NoOpRegistry) IncrementExports(kind string)                                         {}
func (r *NoOpRegistry) RecordExportDuration(duration time.Duration)                          {}
func (r *NoOpRegistry) RecordExportBytes(n int)                                              {}
func (r *NoOpRegistry) IncrementAssetUploads(outcome string)                                 {}
func (r *NoOpRegistry) IncrementRateLimitRequests(client string)                             {}
func (r *NoOpRegistry) IncrementRateLimitHits(client string)                                 {}
func (r *NoOpRegistry) IncrementAnalyticsErrors()                                            {}
