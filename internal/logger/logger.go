package logger

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ANSI color codes for development logging
const (
	Reset      = "\033[0m"
	DebugColor = "\033[36m" // Cyan
	InfoColor  = "\033[32m" // Green
	WarnColor  = "\033[33m" // Yellow
	ErrorColor = "\033[31m" // Red
	FatalColor = "\033[35m" // Magenta
)

// Logger is the structured logger used throughout the locator.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	With(fields ...Field) Logger
	Named(name string) Logger

	// Zap exposes the underlying zap logger.
	Zap() *zap.Logger
	Sync() error
}

// Config selects level, encoding and destination.
type Config struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// logger implements the Logger interface using zap
type logger struct {
	zap *zap.Logger
}

type contextKey int

const loggerKey contextKey = iota

// ParseLevel maps a level name onto a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// New creates a logger from cfg. The "json" format uses zap's production
// encoder; anything else gets the colored development console.
func New(cfg Config) (Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	sink, err := openSink(cfg.Output)
	if err != nil {
		return nil, err
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "json":
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	case "", "console":
		encoder = zapcore.NewConsoleEncoder(developmentEncoderConfig())
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	core := zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(level))
	return &logger{zap: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))}, nil
}

// NewDevelopment creates a debug level logger with colors.
func NewDevelopment() Logger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(developmentEncoderConfig()),
		zapcore.AddSync(os.Stdout),
		zap.NewAtomicLevelAt(zapcore.DebugLevel),
	)
	return &logger{zap: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))}
}

// NewNoop creates a logger that discards everything.
func NewNoop() Logger {
	return &logger{zap: zap.NewNop()}
}

// FromZap wraps an existing zap logger.
func FromZap(z *zap.Logger) Logger {
	if z == nil {
		return NewNoop()
	}
	return &logger{zap: z}
}

func openSink(output string) (zapcore.WriteSyncer, error) {
	switch output {
	case "", "stdout":
		return zapcore.AddSync(os.Stdout), nil
	case "stderr":
		return zapcore.AddSync(os.Stderr), nil
	default:
		sink, _, err := zap.Open(output)
		if err != nil {
			return nil, fmt.Errorf("open log output %s: %w", output, err)
		}
		return sink, nil
	}
}

func developmentEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    customColorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// customColorLevelEncoder adds colors to log levels
func customColorLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var color string
	switch level {
	case zapcore.DebugLevel:
		color = DebugColor
	case zapcore.InfoLevel:
		color = InfoColor
	case zapcore.WarnLevel:
		color = WarnColor
	case zapcore.ErrorLevel:
		color = ErrorColor
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		color = FatalColor
	default:
		color = Reset
	}

	enc.AppendString(color + level.CapitalString() + Reset)
}

func (l *logger) Debug(msg string, fields ...Field) { l.zap.Debug(msg, fields...) }
func (l *logger) Info(msg string, fields ...Field)  { l.zap.Info(msg, fields...) }
func (l *logger) Warn(msg string, fields ...Field)  { l.zap.Warn(msg, fields...) }
func (l *logger) Error(msg string, fields ...Field) { l.zap.Error(msg, fields...) }

func (l *logger) With(fields ...Field) Logger {
	return &logger{zap: l.zap.With(fields...)}
}

func (l *logger) Named(name string) Logger {
	return &logger{zap: l.zap.Named(name)}
}

func (l *logger) Zap() *zap.Logger { return l.zap }

func (l *logger) Sync() error { return l.zap.Sync() }

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts a logger from the context, falling back to a noop
// logger.
func FromContext(ctx context.Context) Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(Logger); ok {
			return l
		}
	}
	return NewNoop()
}

// Track logs the execution time of an operation at debug level.
func Track(l Logger, name string) func() {
	start := time.Now()

	return func() {
		l.Debug("operation completed",
			String("operation", name),
			Duration("duration", time.Since(start)),
		)
	}
}
