// Package api exposes the banner builder over HTTP: preview rendering,
// validation, export, saved projects and an in-process editing workspace.
package api

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/patrickwarner/bannerforge/internal/analytics"
	"github.com/patrickwarner/bannerforge/internal/config"
	"github.com/patrickwarner/bannerforge/internal/db"
	"github.com/patrickwarner/bannerforge/internal/editor"
	"github.com/patrickwarner/bannerforge/internal/encoder"
	"github.com/patrickwarner/bannerforge/internal/export"
	"github.com/patrickwarner/bannerforge/internal/logic/ratelimit"
	"github.com/patrickwarner/bannerforge/internal/logic/validation"
	"github.com/patrickwarner/bannerforge/internal/observability"
	"github.com/patrickwarner/bannerforge/internal/storage"
)

// Pinger is a backend that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server groups dependencies for HTTP handlers. Cache, Projects, Analytics and
// Archives are optional; a nil value disables the feature behind it.
type Server struct {
	Logger    *zap.Logger
	Metrics   observability.MetricsRegistry
	Config    config.Config
	Cache     db.RenderCache
	Projects  db.ProjectRepository
	Analytics analytics.AnalyticsService
	Archives  storage.ArchiveStore
	Editor    *editor.Store
	Encoder   encoder.Encoder
	Validator *validation.Validator
	Packager  *export.Packager
	Limiter   *ratelimit.ClientLimiter
	// Sampler thins the per-request access log.
	Sampler *observability.Sampler
	// Backends are pinged by the health check, keyed by name.
	Backends map[string]Pinger
	Now      func() time.Time
}

// NewServer constructs a Server with the in-process components configured from cfg.
func NewServer(logger *zap.Logger, metrics observability.MetricsRegistry, cfg config.Config) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	packager := export.NewPackager(logger.Named("export"), metrics)
	packager.Concurrency = cfg.ExportConcurrency
	return &Server{
		Logger:    logger,
		Metrics:   metrics,
		Config:    cfg,
		Editor:    editor.NewStore(logger.Named("editor")),
		Encoder:   encoder.NewImageEncoder(logger.Named("encoder")),
		Validator: validation.NewValidator(cfg.MaxBannerBytes(), logger.Named("validation"), metrics),
		Packager:  packager,
		Limiter: ratelimit.NewClientLimiter(ratelimit.Config{
			Capacity:   cfg.RateLimitCapacity,
			RefillRate: cfg.RateLimitRefillRate,
			Enabled:    cfg.RateLimitEnabled,
		}, metrics),
		Sampler:  observability.NewSampler(cfg.LogSampleRate),
		Backends: map[string]Pinger{},
		Now:      time.Now,
	}
}

func (s *Server) encoderOptions() encoder.Options {
	return encoder.Options{MaxDimension: s.Config.AssetMaxDimension, Quality: s.Config.AssetQuality}
}

// record sends an analytics event. Missing analytics is not an error.
func (s *Server) record(ctx context.Context, ev analytics.Event) {
	if s.Analytics == nil {
		return
	}
	if err := s.Analytics.RecordEvent(ctx, ev); err != nil && !errors.Is(err, analytics.ErrUnavailable) {
		s.Logger.Warn("record analytics event", zap.String("event_type", ev.EventType), zap.Error(err))
	}
}
