package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// total requests per endpoint, method and status code
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bannerforge_requests_total",
			Help: "Total API requests received",
		},
		[]string{"endpoint", "method", "status"},
	)

	// request latency in seconds per endpoint/method
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bannerforge_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	// banner documents rendered, labelled by size key
	RenderCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bannerforge_renders_total",
			Help: "Total banner documents rendered",
		},
		[]string{"size"},
	)

	// size of rendered documents with inlined assets
	RenderBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bannerforge_render_bytes",
			Help:    "Size of rendered banner documents in bytes",
			Buckets: prometheus.ExponentialBuckets(4*1024, 2, 10),
		},
	)

	// render cache lookups by outcome (hit, miss, error)
	RenderCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bannerforge_render_cache_total",
			Help: "Render cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	// validation runs labelled by outcome (valid, invalid)
	ValidationCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bannerforge_validations_total",
			Help: "Total validation runs",
		},
		[]string{"outcome"},
	)

	// exports labelled by kind (single, bundle, error)
	ExportCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bannerforge_exports_total",
			Help: "Total archive exports",
		},
		[]string{"kind"},
	)

	ExportDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bannerforge_export_duration_seconds",
			Help:    "Duration of archive exports",
			Buckets: prometheus.DefBuckets,
		},
	)

	ExportBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bannerforge_export_bytes",
			Help:    "Size of exported archives in bytes",
			Buckets: prometheus.ExponentialBuckets(16*1024, 2, 12),
		},
	)

	// uploaded images by outcome (encoded, failed)
	AssetUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bannerforge_asset_uploads_total",
			Help: "Total uploaded images processed",
		},
		[]string{"outcome"},
	)

	// rate limit hits per client
	RateLimitHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bannerforge_ratelimit_hits_total",
			Help: "Total export requests rejected by the rate limiter",
		},
		[]string{"client"},
	)

	// rate limit checks per client
	RateLimitRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bannerforge_ratelimit_requests_total",
			Help: "Total export requests checked by the rate limiter",
		},
		[]string{"client"},
	)

	// failures writing analytics events
	AnalyticsErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bannerforge_analytics_errors_total",
			Help: "Total analytics events that could not be recorded",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestCount,
		RequestLatency,
		RenderCount,
		RenderBytes,
		RenderCacheLookups,
		ValidationCount,
		ExportCount,
		ExportDuration,
		ExportBytes,
		AssetUploads,
		RateLimitHits,
		RateLimitRequests,
		AnalyticsErrors,
	)
}
