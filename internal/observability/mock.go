package observability

import (
	"sync"
	"time"
)

// MockMetricsRegistry records calls so tests can assert on them.
type MockMetricsRegistry struct {
	mu     sync.Mutex
	counts map[string]int
}

// Count returns how many times the named metric was recorded with the given label.
// The key has the form "metric" or "metric:label".
func (m *MockMetricsRegistry) Count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[key]
}

func (m *MockMetricsRegistry) inc(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = make(map[string]int)
	}
	m.counts[key]++
}

func (m *MockMetricsRegistry) IncrementRequests(endpoint, method, status string) {
	m.inc("requests:" + endpoint + ":" + status)
}
func (m *MockMetricsRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {
	m.inc("latency:" + endpoint)
}
func (m *MockMetricsRegistry) IncrementRenders(size string)        { m.inc("renders:" + size) }
func (m *MockMetricsRegistry) RecordRenderBytes(n int)             { m.inc("render_bytes") }
func (m *MockMetricsRegistry) IncrementRenderCache(outcome string) { m.inc("render_cache:" + outcome) }
func (m *MockMetricsRegistry) IncrementValidations(outcome string) { m.inc("validations:" + outcome) }
func (m *MockMetricsRegistry) IncrementExports(kind string)        { m.inc("exports:" + kind) }
func (m *MockMetricsRegistry) RecordExportDuration(duration time.Duration) {
	m.inc("export_duration")
}
func (m *MockMetricsRegistry) RecordExportBytes(n int)              { m.inc("export_bytes") }
func (m *MockMetricsRegistry) IncrementAssetUploads(outcome string) { m.inc("asset_uploads:" + outcome) }
func (m *MockMetricsRegistry) IncrementRateLimitRequests(client string) {
	m.inc("ratelimit_requests:" + client)
}
func (m *MockMetricsRegistry) IncrementRateLimitHits(client string) { m.inc("ratelimit_hits:" + client) }
func (m *MockMetricsRegistry) IncrementAnalyticsErrors()            { m.inc("analytics_errors") }
