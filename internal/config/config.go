package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends for exported archives.
const (
	StorageNone  = "none"
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ServiceName  string
	// Optional backends; an empty address or DSN disables the backend.
	RedisAddr      string
	RenderCacheTTL time.Duration
	PostgresDSN    string
	ClickHouseDSN  string
	// Database connection pooling configuration
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration
	// Archive storage
	StorageBackend string
	StorageDir     string
	S3Bucket       string
	S3Region       string
	S3Prefix       string
	S3Endpoint     string
	// Signed download links; an empty secret leaves stored archives unsigned.
	DownloadSecret string
	DownloadTTL    time.Duration
	// Banner limits
	MaxBannerKB       int
	AssetMaxDimension int
	AssetQuality      float64
	MaxUploadBytes    int64
	ExportConcurrency int
	ExportTimeout     time.Duration
	// Export rate limiting
	RateLimitEnabled    bool
	RateLimitCapacity   int
	RateLimitRefillRate int
	// Tracing configuration
	TracingEnabled    bool
	TracingEndpoint   string
	TracingSampleRate float64
	Environment       string
	// LogSampleRate is the share of successful requests that get an access log line.
	LogSampleRate float64
}

// Load parses environment variables and returns a Config populated with
// defaults when variables are absent.
func Load() Config {
	cfg := Config{}

	cfg.Port = getenv("PORT", "8787")
	cfg.ReadTimeout = envDuration("READ_TIMEOUT", 15*time.Second)
	cfg.WriteTimeout = envDuration("WRITE_TIMEOUT", 60*time.Second)
	cfg.ServiceName = getenv("SERVICE_NAME", "bannerforge")

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RenderCacheTTL = envDuration("RENDER_CACHE_TTL", 10*time.Minute)
	cfg.PostgresDSN = os.Getenv("POSTGRES_DSN")
	cfg.ClickHouseDSN = os.Getenv("CLICKHOUSE_DSN")

	cfg.DBMaxOpenConns = envInt("DB_MAX_OPEN_CONNS", 10)
	cfg.DBMaxIdleConns = envInt("DB_MAX_IDLE_CONNS", 5)
	cfg.DBConnMaxLifetime = envDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	cfg.DBConnMaxIdleTime = envDuration("DB_CONN_MAX_IDLE_TIME", 1*time.Minute)

	cfg.StorageBackend = strings.ToLower(getenv("STORAGE_BACKEND", StorageNone))
	cfg.StorageDir = getenv("STORAGE_DIR", "data/exports")
	cfg.S3Bucket = os.Getenv("S3_BUCKET")
	cfg.S3Region = getenv("S3_REGION", "us-east-1")
	cfg.S3Prefix = getenv("S3_PREFIX", "exports")
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.DownloadSecret = os.Getenv("DOWNLOAD_TOKEN_SECRET")
	cfg.DownloadTTL = envDuration("DOWNLOAD_TOKEN_TTL", 24*time.Hour)

	cfg.MaxBannerKB = envInt("MAX_BANNER_KB", 150)
	cfg.AssetMaxDimension = envInt("ASSET_MAX_DIMENSION", 600)
	cfg.AssetQuality = envFloat("ASSET_QUALITY", 0.6)
	cfg.MaxUploadBytes = int64(envInt("MAX_UPLOAD_MB", 20)) << 20
	cfg.ExportConcurrency = envInt("EXPORT_CONCURRENCY", 4)
	cfg.ExportTimeout = envDuration("EXPORT_TIMEOUT", 30*time.Second)

	cfg.RateLimitEnabled = envBool("EXPORT_RATE_LIMIT_ENABLED", true)
	cfg.RateLimitCapacity = envInt("EXPORT_RATE_LIMIT_CAPACITY", 10)
	cfg.RateLimitRefillRate = envInt("EXPORT_RATE_LIMIT_REFILL_RATE", 1)

	cfg.TracingEnabled = envBool("TRACING_ENABLED", false)
	cfg.TracingEndpoint = getenv("TRACING_ENDPOINT", "tempo:4317")
	cfg.TracingSampleRate = envFloat("TRACING_SAMPLE_RATE", 1.0)
	cfg.Environment = getenv("ENV", "development")
	cfg.LogSampleRate = envFloat("LOG_SAMPLE_RATE", defaultLogSampleRate(cfg.Environment))

	return cfg
}

// defaultLogSampleRate logs every request in development and thins production.
func defaultLogSampleRate(env string) float64 {
	switch strings.ToLower(env) {
	case "development", "dev":
		return 1.0
	case "staging", "test":
		return 0.5
	default:
		return 0.1
	}
}

// Validate reports settings that would make the server misbehave.
func (c Config) Validate() error {
	switch c.StorageBackend {
	case StorageNone, StorageLocal:
	case StorageS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("STORAGE_BACKEND=s3 requires S3_BUCKET")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.MaxBannerKB <= 0 {
		return fmt.Errorf("MAX_BANNER_KB must be positive, got %d", c.MaxBannerKB)
	}
	if c.AssetQuality <= 0 || c.AssetQuality > 1 {
		return fmt.Errorf("ASSET_QUALITY must be in (0, 1], got %g", c.AssetQuality)
	}
	if c.AssetMaxDimension <= 0 {
		return fmt.Errorf("ASSET_MAX_DIMENSION must be positive, got %d", c.AssetMaxDimension)
	}
	if c.LogSampleRate < 0 || c.LogSampleRate > 1 {
		return fmt.Errorf("LOG_SAMPLE_RATE must be in [0, 1], got %g", c.LogSampleRate)
	}
	return nil
}

// MaxBannerBytes is the per-unit size ceiling in bytes.
func (c Config) MaxBannerBytes() int {
	return c.MaxBannerKB * 1024
}

// getenv returns the value of the environment variable if set, otherwise def.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envDuration parses an environment variable into a time.Duration.
// The value can be a duration string (e.g. "5s") or a number of seconds.
// If the variable is unset or invalid, def is returned.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

// envBool parses a boolean environment variable. Accepted values are those
// supported by strconv.ParseBool. When unset or invalid, def is returned.
func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return def
}

// envInt parses an integer environment variable. When unset or invalid, def is returned.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return def
}

// envFloat parses a float64 environment variable. When unset or invalid, def is returned.
func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return def
}
