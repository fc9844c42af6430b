package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

// TraceLevel sits below Debug. Per-batch timings and wire details log here.
const TraceLevel = zapcore.Level(-2)

const traceName = "trace"

// LevelFromString parses a level name: zap's names plus "trace".
func LevelFromString(s string) (zapcore.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == traceName {
		return TraceLevel, nil
	}
	lvl, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("unknown level %q", s)
	}
	return lvl, nil
}

// LevelName is zapcore.Level.String with a name for TraceLevel.
func LevelName(l zapcore.Level) string {
	if l == TraceLevel {
		return traceName
	}
	return l.String()
}

func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(LevelName(l))
}
