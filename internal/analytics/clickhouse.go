package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	_ "github.com/ClickHouse/clickhouse-go/v2"

	"github.com/patrickwarner/bannerforge/internal/observability"
)

// Event types recorded by the API.
const (
	EventRender   = "render"
	EventValidate = "validate"
	EventExport   = "export"
	EventUpload   = "asset_upload"
)

// AnalyticsService defines the interface for analytics operations.
// Implementations should handle cases where underlying storage is unavailable
// by returning ErrUnavailable.
type AnalyticsService interface {
	// RecordEvent records a single builder event.
	RecordEvent(ctx context.Context, ev Event) error
	// RecordExport is a convenience wrapper for export events.
	RecordExport(ctx context.Context, archive string, variationIDs []string, sizes []string, units, bytes int, took time.Duration, exportErr error) error
}

// ErrUnavailable is returned when the analytics DB is not configured.
var ErrUnavailable = fmt.Errorf("analytics unavailable")

// Analytics wraps a ClickHouse DB connection.
type Analytics struct {
	DB      *sql.DB
	Metrics observability.MetricsRegistry
	Now     func() time.Time
}

// Event mirrors a row in the banner_events table.
type Event struct {
	Timestamp   time.Time         `json:"timestamp"`
	EventType   string            `json:"event_type"`
	VariationID string            `json:"variation_id"`
	Sizes       []string          `json:"sizes"`
	Units       int32             `json:"units"`
	Bytes       int64             `json:"bytes"`
	DurationMs  int64             `json:"duration_ms"`
	Outcome     string            `json:"outcome"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// InitClickHouse connects to ClickHouse and ensures the events table exists.
func InitClickHouse(dsn string, metrics observability.MetricsRegistry) (*Analytics, error) {
	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	db.SetMaxOpenConns(10)
	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	create := `CREATE TABLE IF NOT EXISTS banner_events (
       timestamp    DateTime64(3),
       event_type   LowCardinality(String),
       variation_id String,
       sizes        Array(String),
       units        Int32,
       bytes        Int64,
       duration_ms  Int64,
       outcome      LowCardinality(String),
       attributes   Map(String, String)
   ) ENGINE=MergeTree() ORDER BY (event_type, timestamp)`
	if _, err := db.ExecContext(context.Background(), create); err != nil {
		return nil, fmt.Errorf("clickhouse create table: %w", err)
	}

	zap.L().Info("Connected to ClickHouse")
	return &Analytics{DB: db, Metrics: metrics}, nil
}

func (a *Analytics) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// RecordEvent inserts a single event row. A zero Timestamp is replaced by the current time.
func (a *Analytics) RecordEvent(ctx context.Context, ev Event) error {
	if a == nil || a.DB == nil {
		return ErrUnavailable
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = a.now()
	}
	if ev.Sizes == nil {
		ev.Sizes = []string{}
	}
	if ev.Attributes == nil {
		ev.Attributes = map[string]string{}
	}

	stmt := `INSERT INTO banner_events (timestamp, event_type, variation_id, sizes, units, bytes, duration_ms, outcome, attributes) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := a.DB.ExecContext(ctx, stmt, ev.Timestamp, ev.EventType, ev.VariationID, ev.Sizes, ev.Units, ev.Bytes, ev.DurationMs, ev.Outcome, ev.Attributes); err != nil {
		zap.L().Error("clickhouse insert failed", zap.Error(err), zap.String("event_type", ev.EventType))
		if a.Metrics != nil {
			a.Metrics.IncrementAnalyticsErrors()
		}
		return fmt.Errorf("insert %s event: %w", ev.EventType, err)
	}
	return nil
}

// RecordExport records one export attempt. exportErr marks the event as failed.
func (a *Analytics) RecordExport(ctx context.Context, archive string, variationIDs []string, sizes []string, units, bytes int, took time.Duration, exportErr error) error {
	ev := Event{
		EventType:  EventExport,
		Sizes:      sizes,
		Units:      int32(units),
		Bytes:      int64(bytes),
		DurationMs: took.Milliseconds(),
		Outcome:    "ok",
		Attributes: map[string]string{"archive": archive},
	}
	if len(variationIDs) == 1 {
		ev.VariationID = variationIDs[0]
	} else {
		ev.Attributes["variations"] = fmt.Sprint(len(variationIDs))
	}
	if exportErr != nil {
		ev.Outcome = "error"
		ev.Attributes["error"] = exportErr.Error()
	}
	return a.RecordEvent(ctx, ev)
}

// Close terminates the ClickHouse connection.
func (a *Analytics) Close() {
	if a != nil && a.DB != nil {
		if err := a.DB.Close(); err != nil {
			zap.L().Error("clickhouse close", zap.Error(err))
		}
	}
}

// CountByType returns how many events of each type were recorded since the given time.
func (a *Analytics) CountByType(ctx context.Context, since time.Time) (map[string]int64, error) {
	if a == nil || a.DB == nil {
		return nil, ErrUnavailable
	}
	rows, err := a.DB.QueryContext(ctx, `SELECT event_type, count() FROM banner_events WHERE timestamp >= ? GROUP BY event_type`, since)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			zap.L().Warn("rows close", zap.Error(err))
		}
	}()

	out := make(map[string]int64)
	for rows.Next() {
		var typ string
		var n int64
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("scan event count: %w", err)
		}
		out[typ] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// Ping reports whether ClickHouse is reachable.
func (a *Analytics) Ping(ctx context.Context) error {
	if a == nil || a.DB == nil {
		return ErrUnavailable
	}
	return a.DB.PingContext(ctx)
}
