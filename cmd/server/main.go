package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/patrickwarner/bannerforge/internal/analytics"
	"github.com/patrickwarner/bannerforge/internal/api"
	"github.com/patrickwarner/bannerforge/internal/config"
	"github.com/patrickwarner/bannerforge/internal/db"
	"github.com/patrickwarner/bannerforge/internal/observability"
	"github.com/patrickwarner/bannerforge/internal/storage"
)

// limiterIdle is how long an export client may stay quiet before its bucket is dropped.
const limiterIdle = 30 * time.Minute

func main() {
	cfg := config.Load()

	logger, err := observability.InitLoggerWithService(cfg.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to sync logger: %v\n", err)
		}
	}()

	if err := run(logger, cfg); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

func run(logger *zap.Logger, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracing(ctx, logger, cfg.ServiceName, cfg.TracingEndpoint, cfg.Environment, cfg.TracingSampleRate)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer shutdown()
	}

	metricsRegistry := observability.NewPrometheusRegistry()
	srv := api.NewServer(logger, metricsRegistry, cfg)

	if cfg.RedisAddr != "" {
		store, err := db.InitRedis(cfg.RedisAddr)
		if err != nil {
			return fmt.Errorf("failed to connect redis: %w", err)
		}
		defer store.Close()
		srv.Cache = store
		srv.Backends["redis"] = store
	}

	if cfg.PostgresDSN != "" {
		pg, err := db.InitPostgres(cfg.PostgresDSN, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime, cfg.DBConnMaxIdleTime)
		if err != nil {
			return fmt.Errorf("failed to connect postgres: %w", err)
		}
		defer pg.Close()
		srv.Projects = pg
		srv.Backends["postgres"] = pg
	}

	if cfg.ClickHouseDSN != "" {
		analyticsSvc, err := analytics.InitClickHouse(cfg.ClickHouseDSN, metricsRegistry)
		if err != nil {
			return fmt.Errorf("failed to connect clickhouse: %w", err)
		}
		defer analyticsSvc.Close()
		srv.Analytics = analyticsSvc
		srv.Backends["clickhouse"] = analyticsSvc
	}

	switch cfg.StorageBackend {
	case config.StorageLocal:
		local, err := storage.NewLocalStorage(cfg.StorageDir, logger.Named("storage"))
		if err != nil {
			return fmt.Errorf("init local storage: %w", err)
		}
		srv.Archives = local
	case config.StorageS3:
		s3Store, err := storage.NewS3(ctx, storage.S3Config{
			Region:   cfg.S3Region,
			Bucket:   cfg.S3Bucket,
			Prefix:   cfg.S3Prefix,
			Endpoint: cfg.S3Endpoint,
		}, logger.Named("storage"))
		if err != nil {
			return fmt.Errorf("init s3 storage: %w", err)
		}
		srv.Archives = s3Store
	}

	addr := ":" + cfg.Port
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(srv.Routes(), "bannerforge"),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Info("Banner server running",
		zap.String("addr", addr),
		zap.String("storage", cfg.StorageBackend),
		zap.Int("backends", len(srv.Backends)),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	ticker := time.NewTicker(5 * time.Minute)
	go func() {
		for {
			select {
			case <-ticker.C:
				if n := srv.Limiter.Sweep(limiterIdle); n > 0 {
					logger.Debug("dropped idle rate limit buckets", zap.Int("count", n))
				}
				srv.Sampler.LogStats(logger)
			case <-ctx.Done():
				ticker.Stop()
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
