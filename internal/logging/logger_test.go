package logging

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lognoop "go.opentelemetry.io/otel/log/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func newBufferedLogger(t *testing.T, mutate func(*Config)) (*Logger, *zaptest.Buffer) {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Sampling.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}
	buf := &zaptest.Buffer{}
	logger, err := newLogger(cfg, buf, nil)
	require.NoError(t, err)
	return logger, buf
}

func decodeLines(t *testing.T, buf *zaptest.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range buf.Lines() {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "xml"

	_, err := NewLogger(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestNewLogger_NoOutput(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Output.Stdout = false
	cfg.Output.OTEL = true

	_, err := NewLogger(cfg, nil)
	assert.ErrorContains(t, err, "no output available")

	logger, err := NewLogger(cfg, lognoop.NewLoggerProvider())
	require.NoError(t, err)
	assert.NotPanics(t, func() { logger.Info(context.Background(), "to otel") })
}

func TestLogger_JSONOutput(t *testing.T) {
	logger, buf := newBufferedLogger(t, func(c *Config) { c.Level = TraceLevel })

	ctx := WithEmbedTarget(context.Background(), "grpc", "sentence-transformers/all-MiniLM-L6-v2")
	ctx = WithWorkerID(ctx, 3)
	logger.Trace(ctx, "request encoded", zap.Int("bytes", 42))
	logger.Info(ctx, "dialing", zap.String("authorization", "Bearer s3cr3t"))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)

	assert.Equal(t, "trace", lines[0]["level"])
	assert.Equal(t, "embedd", lines[0]["service"])
	assert.Equal(t, "grpc", lines[0]["embed.method"])
	assert.Equal(t, "sentence-transformers/all-MiniLM-L6-v2", lines[0]["embed.model"])
	assert.Equal(t, float64(3), lines[0]["worker.id"])
	assert.Equal(t, float64(42), lines[0]["bytes"])
	assert.Contains(t, lines[0]["caller"], "logger_test.go")

	assert.Equal(t, "info", lines[1]["level"])
	assert.NotContains(t, buf.String(), "s3cr3t")
}

func TestLogger_LevelGate(t *testing.T) {
	logger, buf := newBufferedLogger(t, func(c *Config) { c.Level = zapcore.WarnLevel })

	logger.Debug(context.Background(), "dropped")
	logger.Info(context.Background(), "dropped")
	logger.Warn(context.Background(), "kept")
	logger.Error(context.Background(), "kept")

	assert.Len(t, buf.Lines(), 2)
	assert.False(t, logger.Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Enabled(zapcore.ErrorLevel))
}

func TestLogger_ConsoleFormat(t *testing.T) {
	logger, buf := newBufferedLogger(t, func(c *Config) {
		c.Format = "console"
		c.Level = TraceLevel
	})

	logger.Trace(context.Background(), "weights mapped")

	require.Len(t, buf.Lines(), 1)
	assert.Contains(t, buf.Lines()[0], "\ttrace\t")
	assert.Contains(t, buf.Lines()[0], "weights mapped")
}

func TestLogger_WithAndNamed(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := &Logger{zap: zap.New(core), config: NewDefaultConfig()}

	child := logger.With(zap.String("component", "remote")).Named("grpc")
	child.Info(context.Background(), "connected")
	logger.Info(context.Background(), "parent")

	entries := observed.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "grpc", entries[0].LoggerName)
	assert.Equal(t, "remote", entries[0].ContextMap()["component"])
	assert.NotContains(t, entries[1].ContextMap(), "component")
	assert.Same(t, logger.Zap().Core(), logger.zap.Core())
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	assert.False(t, logger.Enabled(zapcore.ErrorLevel))
	assert.NotPanics(t, func() { logger.Info(context.Background(), "dropped") })
	assert.NoError(t, logger.Sync())
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
		err  bool
	}{
		{in: "trace", want: TraceLevel},
		{in: " TRACE ", want: TraceLevel},
		{in: "warn", want: zapcore.WarnLevel},
		{in: "Error", want: zapcore.ErrorLevel},
		{in: "loud", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := LevelFromString(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevelName(t *testing.T) {
	assert.Equal(t, "trace", LevelName(TraceLevel))
	assert.Equal(t, "debug", LevelName(zapcore.DebugLevel))
}

func TestTestLogger_Assertions(t *testing.T) {
	tl := NewTestLogger()
	ctx := WithWorkerID(WithEmbedTarget(context.Background(), "fastembed", "AllMiniLML6V2"), 1)
	tl.Warn(ctx, "model load failed: timeout", zap.Int("attempt", 2))

	tl.AssertLogged(t, zapcore.WarnLevel, "model load failed")
	tl.AssertField(t, "model load", "attempt", 2)
	tl.AssertEmbedTarget(t, "model load failed", "fastembed", "AllMiniLML6V2")
	tl.AssertWorker(t, "model load failed", 1)
	tl.AssertNoSecrets(t)
	assert.Len(t, tl.Entries("load"), 1)
	assert.Len(t, tl.All(), 1)
}
