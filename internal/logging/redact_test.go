package logging

import (
	"testing"
	"time"

	"github.com/fyrsmithlabs/embedd/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func encode(t *testing.T, enc zapcore.Encoder, fields ...zap.Field) string {
	t.Helper()
	buf, err := enc.EncodeEntry(zapcore.Entry{Message: "msg", Time: time.Unix(0, 0)}, fields)
	require.NoError(t, err)
	return buf.String()
}

func TestRedactingEncoder(t *testing.T) {
	enc, err := NewRedactingEncoder(newEncoder("json"), NewDefaultConfig().Redaction)
	require.NoError(t, err)

	out := encode(t, enc,
		zap.String("api_key", "abc123"),
		zap.String("header", "Bearer sk-live-token"),
		zap.String("endpoint", "127.0.0.1:50051"),
	)

	assert.NotContains(t, out, "abc123")
	assert.NotContains(t, out, "sk-live-token")
	assert.Contains(t, out, "127.0.0.1:50051")
}

func TestRedactingEncoder_InvalidPattern(t *testing.T) {
	_, err := NewRedactingEncoder(newEncoder("json"), RedactionConfig{
		Enabled:  true,
		Patterns: []string{"("},
	})
	assert.Error(t, err)
}

func TestSecretField(t *testing.T) {
	tl := NewTestLogger()
	tl.Info(t.Context(), "dialing", Secret("api_key", config.Secret("s3cr3t")), RedactedString("token", "xyz"))

	tl.AssertLogged(t, zapcore.InfoLevel, "dialing")
	tl.AssertNoSecrets(t)
}
