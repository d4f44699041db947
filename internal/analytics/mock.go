package analytics

import (
	"context"
	"sync"
	"time"
)

var _ AnalyticsService = (*MockAnalytics)(nil)

// MockAnalytics keeps recorded events in memory for tests.
type MockAnalytics struct {
	mu     sync.Mutex
	Events []Event
}

// NewMockAnalytics creates a new mock analytics instance
func NewMockAnalytics() *MockAnalytics {
	return &MockAnalytics{}
}

// RecordEvent stores the event.
func (m *MockAnalytics) RecordEvent(_ context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, ev)
	return nil
}

// RecordExport stores an export event.
func (m *MockAnalytics) RecordExport(ctx context.Context, archive string, variationIDs []string, sizes []string, units, bytes int, took time.Duration, exportErr error) error {
	outcome := "ok"
	if exportErr != nil {
		outcome = "error"
	}
	return m.RecordEvent(ctx, Event{
		EventType:  EventExport,
		Sizes:      sizes,
		Units:      int32(units),
		Bytes:      int64(bytes),
		DurationMs: took.Milliseconds(),
		Outcome:    outcome,
		Attributes: map[string]string{"archive": archive},
	})
}

// Recorded returns a copy of the events of the given type.
func (m *MockAnalytics) Recorded(eventType string) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, ev := range m.Events {
		if ev.EventType == eventType {
			out = append(out, ev)
		}
	}
	return out
}
