package logger

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation controls file output. Zero values fall back to the defaults below.
type Rotation struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Config represents logger configuration
type Config struct {
	Level            string // debug, info, warn, error
	Format           string // json or console
	OutputPath       string // stdout, stderr or a file path
	SlowQuerySeconds float64
	EnableSampling   bool
	Rotation         Rotation
	ServiceName      string
	ServiceVersion   string
	Environment      string
}

// NewWithConfig builds the service logger. Every entry carries the service,
// version and environment fields.
func NewWithConfig(cfg Config) (*zap.Logger, error) {
	level, err := parseLogLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	encoder, err := newEncoder(cfg)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(encoder, newSink(cfg.OutputPath, cfg.Rotation), level)
	if cfg.EnableSampling {
		// first 100 entries per second, then every 10th
		core = zapcore.NewSamplerWithOptions(core, time.Second, 100, 10)
	}

	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(
			zap.String("service", cfg.ServiceName),
			zap.String("version", cfg.ServiceVersion),
			zap.String("environment", cfg.Environment),
		),
	), nil
}

// parseLogLevel accepts zap level names plus "warning". Empty means info.
func parseLogLevel(name string) (zapcore.Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "":
		return zapcore.InfoLevel, nil
	case "warning":
		return zapcore.WarnLevel, nil
	}
	level, err := zapcore.ParseLevel(name)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

func newEncoder(cfg Config) (zapcore.Encoder, error) {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "timestamp"
	ec.MessageKey = "message"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeDuration = zapcore.SecondsDurationEncoder

	switch cfg.Format {
	case "json":
		return zapcore.NewJSONEncoder(ec), nil
	case "console", "":
		if cfg.Environment != "production" {
			ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		return zapcore.NewConsoleEncoder(ec), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}
}

// newSink maps an output path to a writer. Files are rotated by lumberjack.
func newSink(path string, r Rotation) zapcore.WriteSyncer {
	switch path {
	case "", "stdout":
		return zapcore.Lock(os.Stdout)
	case "stderr":
		return zapcore.Lock(os.Stderr)
	}

	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   r.Compress,
	}
	if r.MaxSizeMB > 0 {
		file.MaxSize = r.MaxSizeMB
	}
	if r.MaxBackups > 0 {
		file.MaxBackups = r.MaxBackups
	}
	if r.MaxAgeDays > 0 {
		file.MaxAge = r.MaxAgeDays
	}
	return zapcore.AddSync(file)
}

type contextKey struct{}

// RequestIDHeader is the HTTP header and gRPC metadata key carrying the request ID
const RequestIDHeader = "x-request-id"

// WithRequestID returns a copy of ctx carrying the request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKey{}, requestID)
}

// GetRequestID returns the request ID stored in ctx, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// WithContext tags l with the request ID from ctx when there is one.
func WithContext(ctx context.Context, l *zap.Logger) *zap.Logger {
	if id := GetRequestID(ctx); id != "" {
		return l.With(zap.String("request_id", id))
	}
	return l
}
