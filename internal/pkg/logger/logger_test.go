package logger

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// resetLogger resets the global logger state for testing
func resetLogger() {
	baseLogger = nil
	initBaseLoggerOnce = sync.Once{}
}

func TestInit(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		t.Run("valid level "+level, func(t *testing.T) {
			resetLogger()
			require.NoError(t, Init(WithLevel(level)))
			assert.NotNil(t, baseLogger)
		})
	}

	t.Run("error with invalid level", func(t *testing.T) {
		resetLogger()
		assert.Error(t, Init(WithLevel("loud")))
		assert.Nil(t, baseLogger)
	})

	t.Run("defaults to info", func(t *testing.T) {
		resetLogger()
		require.NoError(t, Init())

		assert.False(t, baseLogger.Desugar().Core().Enabled(zapcore.DebugLevel))
		assert.True(t, baseLogger.Desugar().Core().Enabled(zapcore.InfoLevel))
	})

	t.Run("init only once", func(t *testing.T) {
		resetLogger()
		require.NoError(t, Init(WithLevel("debug")))
		first := baseLogger

		require.NoError(t, Init(WithLevel("error")))
		assert.Same(t, first, baseLogger, "Init() should only initialize once")
	})
}

// recordingExporter keeps every exported log record in memory.
type recordingExporter struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (e *recordingExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, r := range records {
		e.records = append(e.records, r.Clone())
	}
	return nil
}

func (e *recordingExporter) Shutdown(context.Context) error   { return nil }
func (e *recordingExporter) ForceFlush(context.Context) error { return nil }

func (e *recordingExporter) bodies() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	bodies := make([]string, 0, len(e.records))
	for _, r := range e.records {
		bodies = append(bodies, r.Body().AsString())
	}
	return bodies
}

func TestInit_LoggerProviderBridge(t *testing.T) {
	t.Run("forwards entries to the logger provider", func(t *testing.T) {
		resetLogger()

		exporter := &recordingExporter{}
		lp := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))
		t.Cleanup(func() { _ = lp.Shutdown(context.Background()) })

		require.NoError(t, Init(WithLevel("info"), WithLoggerProvider(lp)))

		Info(t.Context(), "tally finished", "records", 3)

		assert.Contains(t, exporter.bodies(), "tally finished")

		exporter.mu.Lock()
		defer exporter.mu.Unlock()
		require.NotEmpty(t, exporter.records)
		assert.Equal(t, otellog.SeverityInfo, exporter.records[len(exporter.records)-1].Severity())
	})

	t.Run("stdout only without a provider", func(t *testing.T) {
		resetLogger()
		require.NoError(t, Init(WithLoggerProvider(nil)))

		assert.NotPanics(t, func() { Info(t.Context(), "stdout only") })
	})
}

func TestDerive(t *testing.T) {
	resetLogger()
	require.NoError(t, Init(WithLevel("debug")))

	t.Run("stores a logger on the context", func(t *testing.T) {
		ctx := Derive(t.Context(), "run_id", "abc")

		l, ok := ctx.Value(ctxKey).(*zap.SugaredLogger)
		require.True(t, ok)
		assert.NotSame(t, baseLogger, l, "derived logger should be a child of the base logger")
	})

	t.Run("derives from an already derived context", func(t *testing.T) {
		parent := Derive(t.Context(), "a", 1)
		child := Derive(parent, "b", 2)

		assert.NotSame(t, parent.Value(ctxKey), child.Value(ctxKey))
	})
}

func TestDeriveFromCtx(t *testing.T) {
	resetLogger()
	require.NoError(t, Init(WithLevel("debug")))

	t.Run("returns base logger without extra fields", func(t *testing.T) {
		assert.Same(t, baseLogger, deriveFromCtx(t.Context()))
	})

	t.Run("returns context logger when present", func(t *testing.T) {
		ctx := Derive(t.Context(), "k", "v")
		stored := ctx.Value(ctxKey).(*zap.SugaredLogger)

		assert.Same(t, stored, deriveFromCtx(ctx))
	})

	t.Run("adds trace identifiers of a valid span", func(t *testing.T) {
		traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
		spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
		sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
		ctx := trace.ContextWithSpanContext(t.Context(), sc)

		assert.NotSame(t, baseLogger, deriveFromCtx(ctx), "trace fields should produce a child logger")
	})

	t.Run("ignores an invalid span context", func(t *testing.T) {
		ctx := trace.ContextWithSpanContext(t.Context(), trace.SpanContext{})

		assert.Same(t, baseLogger, deriveFromCtx(ctx))
	})
}

func TestLevels(t *testing.T) {
	resetLogger()
	require.NoError(t, Init(WithLevel("debug")))
	ctx := Derive(t.Context(), "test", "levels")

	assert.NotPanics(t, func() {
		Debug(ctx, "debug message", "key", "value")
		Info(ctx, "info message")
		Warn(ctx, "warn message", "key", nil)
		Error(ctx, "error message", "odd")
		log(ctx, zapcore.InfoLevel, "direct", "key", map[string]int{"a": 1})
	})

	assert.Panics(t, func() { Panic(ctx, "panic message") })
}

func TestSync(t *testing.T) {
	t.Run("sync after init", func(t *testing.T) {
		resetLogger()
		require.NoError(t, Init(WithLevel("info")))

		assert.NotPanics(t, func() { _ = Sync() })
	})

	t.Run("sync without init panics", func(t *testing.T) {
		resetLogger()

		assert.Panics(t, func() { _ = Sync() })
	})
}

func TestFatal(t *testing.T) {
	if os.Getenv("TEST_FATAL_SUBPROCESS") == "1" {
		_ = Init(WithLevel("debug"))
		Fatal(context.Background(), "fatal error for test", "key", "value")
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestFatal")
	cmd.Env = append(os.Environ(), "TEST_FATAL_SUBPROCESS=1")

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	err := cmd.Run()
	exitErr, ok := err.(*exec.ExitError)
	require.True(t, ok, "the subprocess should exit with a non-zero status")
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Contains(t, stdout.String(), `"level":"fatal"`)
}
