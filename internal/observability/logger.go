package observability

import (
	"math/rand"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultServiceName names the logger and tracer when SERVICE_NAME is unset.
const DefaultServiceName = "bannerforge"

// InitLogger constructs a production zap.Logger configured for the service.
// The returned logger should be passed to other components for structured logging.
func InitLogger() (*zap.Logger, error) {
	level := getLogLevel()
	return InitLoggerWithLevel(level, DefaultServiceName)
}

// InitLoggerWithService constructs a production zap.Logger configured for the service.
// The returned logger should be passed to other components for structured logging.
func InitLoggerWithService(serviceName string) (*zap.Logger, error) {
	level := getLogLevel()
	return InitLoggerWithLevel(level, serviceName)
}

// InitLoggerWithLevel constructs a zap.Logger at the provided level.
// The returned logger is named with the service name and installed as the global logger.
func InitLoggerWithLevel(level zapcore.Level, serviceName string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)

	// field names match the log shipper's expectations
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.NameKey = "logger"
	cfg.EncoderConfig.CallerKey = "caller"
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.StacktraceKey = "stacktrace"

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	logger = logger.Named(serviceName).With(zap.String("service", serviceName))
	zap.ReplaceGlobals(logger)
	return logger, nil
}

// getLogLevel determines the appropriate log level based on environment
func getLogLevel() zapcore.Level {
	env := strings.ToLower(os.Getenv("ENV"))
	logLevel := strings.ToUpper(os.Getenv("LOG_LEVEL"))

	switch env {
	case "development", "dev":
		if logLevel == "" {
			return zap.DebugLevel
		}
	case "staging", "test":
		if logLevel == "" {
			return zap.InfoLevel
		}
	default: // production
		if logLevel == "" {
			return zap.InfoLevel
		}
	}

	switch logLevel {
	case "DEBUG":
		return zap.DebugLevel
	case "INFO":
		return zap.InfoLevel
	case "WARN":
		return zap.WarnLevel
	case "ERROR":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// SamplingStats counts the decisions a Sampler made since its last report.
type SamplingStats struct {
	Total   int64
	Sampled int64
	Rate    float64
}

// Sampler thins out high-volume log lines such as per-request access logs.
// It is safe for concurrent use.
type Sampler struct {
	rate    float64
	mu      sync.Mutex
	total   int64
	sampled int64
	// Rand returns a value in [0, 1). Tests replace it.
	Rand func() float64
}

// NewSampler keeps roughly rate of the lines offered to it. The rate is clamped to [0, 1].
func NewSampler(rate float64) *Sampler {
	return &Sampler{rate: min(max(rate, 0), 1), Rand: rand.Float64}
}

// Rate reports the configured sampling rate.
func (s *Sampler) Rate() float64 { return s.rate }

// Sample reports whether the next line should be written.
func (s *Sampler) Sample() bool {
	var keep bool
	switch {
	case s.rate >= 1:
		keep = true
	case s.rate <= 0:
		keep = false
	default:
		keep = s.Rand() < s.rate
	}
	s.mu.Lock()
	s.total++
	if keep {
		s.sampled++
	}
	s.mu.Unlock()
	return keep
}

// Stats returns the counters accumulated since the last LogStats call.
func (s *Sampler) Stats() SamplingStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SamplingStats{Total: s.total, Sampled: s.sampled, Rate: s.rate}
}

// LogStats writes the current counters and starts a new reporting window.
// Nothing is logged when no line was offered.
func (s *Sampler) LogStats(logger *zap.Logger) {
	s.mu.Lock()
	total, sampled := s.total, s.sampled
	s.total, s.sampled = 0, 0
	s.mu.Unlock()
	if total == 0 {
		return
	}
	logger.Info("sampling stats",
		zap.Float64("target_rate", s.rate),
		zap.Float64("actual_rate", float64(sampled)/float64(total)),
		zap.Int64("total_logs", total),
		zap.Int64("sampled_logs", sampled),
	)
}
