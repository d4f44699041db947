// Package db holds the storage backends behind the HTTP API: saved projects in
// Postgres and rendered previews plus export counters in Redis.
package db

import (
	"context"
	"time"
)

// ProjectRepository persists saved projects.
type ProjectRepository interface {
	SaveProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context, limit int) ([]ProjectSummary, error)
	DeleteProject(ctx context.Context, id string) error
}

// RenderCache stores rendered documents and daily export counts.
type RenderCache interface {
	RenderThrough(ctx context.Context, key string, ttl time.Duration, fn func() string) (string, bool, error)
	IncrementExports(ctx context.Context, now time.Time) (int64, error)
	ExportsOn(ctx context.Context, t time.Time) (int64, error)
}

var (
	_ ProjectRepository = (*Postgres)(nil)
	_ RenderCache       = (*RedisStore)(nil)
)
