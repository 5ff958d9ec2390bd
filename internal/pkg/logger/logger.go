// Package logger provides a global, sugared Zap logger that can be scoped per
// request through a context.Context. Loggers derived from a context carry the
// OpenTelemetry trace and span identifiers of the active span, if any.
//
// When telemetry registered a LoggerProvider, entries are also forwarded to it
// through the otelzap bridge.
package logger

import (
	"context"
	"os"
	"sync"

	"github.com/gabapcia/tally/internal/pkg/telemetry"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ctxKeyType is unexported so only this package can store loggers on a context.
type ctxKeyType struct{}

// ctxKey is the context key holding a derived *zap.SugaredLogger.
var ctxKey = ctxKeyType{}

var (
	// baseLogger is the process-wide logger, set once by Init.
	baseLogger *zap.SugaredLogger

	// initBaseLoggerOnce guards the one-time configuration of baseLogger.
	initBaseLoggerOnce sync.Once
)

// instrumentationName is the scope of records sent through the OTEL bridge.
const instrumentationName = "github.com/gabapcia/tally"

// config holds configuration options for the logger.
type config struct {
	level    string                 // minimum level (debug, info, warn, error, panic, fatal)
	provider otellog.LoggerProvider // bridge target, nil for stdout only
}

// Option configures the logger before initialization.
type Option func(*config)

// WithLevel sets the minimum log level for the global logger.
func WithLevel(l string) Option {
	return func(c *config) {
		c.level = l
	}
}

// WithLoggerProvider forwards entries to lp instead of the provider registered
// by telemetry.Init. A nil lp disables the bridge.
func WithLoggerProvider(lp otellog.LoggerProvider) Option {
	return func(c *config) {
		c.provider = lp
	}
}

// Init configures the global logger to write JSON to stdout, at the "info"
// level unless WithLevel says otherwise. If telemetry.LoggerProvider() is
// set, an OTEL bridge core is added next to stdout. Calls after the first
// successful one have no effect.
//
// Returns an error if the level cannot be parsed.
func Init(opts ...Option) error {
	cfg := config{
		level:    "info",
		provider: telemetry.LoggerProvider(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	lvl, err := zapcore.ParseLevel(cfg.level)
	if err != nil {
		return err
	}

	initBaseLoggerOnce.Do(func() {
		cores := []zapcore.Core{
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				lvl,
			),
		}

		if cfg.provider != nil {
			cores = append(cores, otelzap.NewCore(instrumentationName, otelzap.WithLoggerProvider(cfg.provider)))
		}

		baseLogger = zap.New(zapcore.NewTee(cores...)).Sugar()
	})

	return nil
}

// Sync flushes any buffered log entries. Call it on shutdown.
func Sync() error {
	return baseLogger.Sync()
}

// deriveFromCtx returns the logger stored on ctx (or the base logger) enriched
// with keysAndValues and the trace identifiers of the span on ctx.
func deriveFromCtx(ctx context.Context, keysAndValues ...any) *zap.SugaredLogger {
	l, ok := ctx.Value(ctxKey).(*zap.SugaredLogger)
	if !ok {
		l = baseLogger
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		keysAndValues = append(keysAndValues,
			"trace_id", sc.TraceID().String(),
			"span_id", sc.SpanID().String(),
		)
	}

	if len(keysAndValues) == 0 {
		return l
	}

	return l.With(keysAndValues...)
}

// Derive returns a child context whose logger always includes keysAndValues.
//
// Example:
//
//	ctx = logger.Derive(ctx, "run_id", runID)
//	logger.Info(ctx, "tally started") // includes run_id
func Derive(ctx context.Context, keysAndValues ...any) context.Context {
	l, ok := ctx.Value(ctxKey).(*zap.SugaredLogger)
	if !ok {
		l = baseLogger
	}

	return context.WithValue(ctx, ctxKey, l.With(keysAndValues...))
}

// log writes msg at level through the logger derived from ctx.
func log(ctx context.Context, level zapcore.Level, msg string, keysAndValues ...any) {
	deriveFromCtx(ctx).Logw(level, msg, keysAndValues...)
}

// Debug logs a debug-level message with optional key/value context.
func Debug(ctx context.Context, msg string, keysAndValues ...any) {
	log(ctx, zapcore.DebugLevel, msg, keysAndValues...)
}

// Info logs an info-level message with optional key/value context.
func Info(ctx context.Context, msg string, keysAndValues ...any) {
	log(ctx, zapcore.InfoLevel, msg, keysAndValues...)
}

// Warn logs a warn-level message with optional key/value context.
func Warn(ctx context.Context, msg string, keysAndValues ...any) {
	log(ctx, zapcore.WarnLevel, msg, keysAndValues...)
}

// Error logs an error-level message with optional key/value context.
func Error(ctx context.Context, msg string, keysAndValues ...any) {
	log(ctx, zapcore.ErrorLevel, msg, keysAndValues...)
}

// Panic logs a panic-level message and then panics.
func Panic(ctx context.Context, msg string, keysAndValues ...any) {
	log(ctx, zapcore.PanicLevel, msg, keysAndValues...)
}

// Fatal logs a fatal-level message and then exits the process.
func Fatal(ctx context.Context, msg string, keysAndValues ...any) {
	log(ctx, zapcore.FatalLevel, msg, keysAndValues...)
}
