package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/patrickwarner/bannerforge/internal/models"
)

// Postgres wraps a postgres DB connection.
type Postgres struct {
	DB *sql.DB
}

// schemaSQL sets up the necessary tables if they don't exist.
const schemaSQL = `CREATE TABLE IF NOT EXISTS projects (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    sizes TEXT[] NOT NULL DEFAULT '{}',
    frame_count INT NOT NULL DEFAULT 0,
    document JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_projects_updated_at ON projects (updated_at DESC);
`

// Project is a saved variation together with its bookkeeping columns.
type Project struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	State     models.AdState `json:"state"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// ProjectSummary is the listing view of a project, without its document.
type ProjectSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Sizes      []string  `json:"sizes"`
	FrameCount int       `json:"frameCount"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// InitPostgres connects to Postgres with connection pooling configuration.
func InitPostgres(dsn string, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (*Postgres, error) {
	// Register the otelsql wrapper for postgres
	driverName, err := otelsql.Register("postgres",
		otelsql.WithAttributes(
			attribute.String("db.system", "postgresql"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("register otelsql: %w", err)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	p := &Postgres{DB: db}
	if err := p.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	zap.L().Info("Connected to Postgres with connection pooling",
		zap.Int("max_open_conns", maxOpenConns),
		zap.Int("max_idle_conns", maxIdleConns),
		zap.Duration("conn_max_lifetime", connMaxLifetime))
	return p, nil
}

// Close terminates the Postgres connection.
func (p *Postgres) Close() {
	if p != nil && p.DB != nil {
		if err := p.DB.Close(); err != nil {
			zap.L().Error("postgres close", zap.Error(err))
		}
	}
}

// ensureSchema creates the required tables if they do not exist.
func (p *Postgres) ensureSchema(ctx context.Context) error {
	if _, err := p.DB.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SaveProject inserts a project or replaces the stored document of an existing one.
// An empty ID is assigned a new UUID. The document is stored in project file format.
func (p *Postgres) SaveProject(ctx context.Context, pr *Project) error {
	if pr.ID == "" {
		pr.ID = uuid.NewString()
	} else if _, err := uuid.Parse(pr.ID); err != nil {
		return fmt.Errorf("project %s: %w", pr.ID, models.ErrNotFound)
	}
	if pr.Name == "" {
		pr.Name = pr.State.Name
	}
	doc, err := models.EncodeProject(pr.State)
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	err = p.DB.QueryRowContext(ctx, `INSERT INTO projects (id, name, sizes, frame_count, document) VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, sizes=EXCLUDED.sizes, frame_count=EXCLUDED.frame_count, document=EXCLUDED.document, updated_at=NOW()
RETURNING created_at, updated_at`,
		pr.ID, pr.Name, pq.Array(pr.State.SelectedSizes), len(pr.State.Frames), doc).Scan(&pr.CreatedAt, &pr.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}

// GetProject loads a project by ID.
func (p *Postgres) GetProject(ctx context.Context, id string) (*Project, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("project %s: %w", id, models.ErrNotFound)
	}
	var pr Project
	var doc []byte
	err := p.DB.QueryRowContext(ctx, `SELECT id, name, document, created_at, updated_at FROM projects WHERE id=$1`, id).
		Scan(&pr.ID, &pr.Name, &doc, &pr.CreatedAt, &pr.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if pr.State, err = models.DecodeProject(doc); err != nil {
		return nil, fmt.Errorf("project %s: %w", id, err)
	}
	return &pr, nil
}

// ListProjects returns the most recently updated projects first.
func (p *Postgres) ListProjects(ctx context.Context, limit int) ([]ProjectSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.DB.QueryContext(ctx, `SELECT id, name, sizes, frame_count, updated_at FROM projects ORDER BY updated_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	out := []ProjectSummary{}
	for rows.Next() {
		var s ProjectSummary
		if err := rows.Scan(&s.ID, &s.Name, pq.Array(&s.Sizes), &s.FrameCount, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return out, nil
}

// DeleteProject removes a project by ID.
func (p *Postgres) DeleteProject(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("project %s: %w", id, models.ErrNotFound)
	}
	res, err := p.DB.ExecContext(ctx, `DELETE FROM projects WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("project %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// Ping reports whether Postgres is reachable.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.DB.PingContext(ctx)
}
