package logging

import (
	"reflect"
	"regexp"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger records every entry from TraceLevel up for assertions.
type TestLogger struct {
	*Logger
	logs *observer.ObservedLogs
}

// NewTestLogger returns a recording logger with default redaction rules.
func NewTestLogger() *TestLogger {
	core, logs := observer.New(TraceLevel)
	return &TestLogger{
		Logger: &Logger{zap: zap.New(core), config: NewDefaultConfig()},
		logs:   logs,
	}
}

// All returns every recorded entry.
func (t *TestLogger) All() []observer.LoggedEntry {
	return t.logs.All()
}

// Entries returns the entries whose message contains msg.
func (t *TestLogger) Entries(msg string) []observer.LoggedEntry {
	return t.logs.FilterMessageSnippet(msg).All()
}

// AssertLogged fails tb unless an entry at level contains msg.
func (t *TestLogger) AssertLogged(tb testing.TB, level zapcore.Level, msg string) {
	tb.Helper()
	for _, e := range t.Entries(msg) {
		if e.Level == level {
			return
		}
	}
	tb.Errorf("no %s entry containing %q in %d entries", LevelName(level), msg, t.logs.Len())
}

// AssertField fails tb unless an entry containing msg has key == want.
// Integer wants match any zap integer field.
func (t *TestLogger) AssertField(tb testing.TB, msg, key string, want any) {
	tb.Helper()
	if n, ok := want.(int); ok {
		want = int64(n)
	}
	var seen []any
	for _, e := range t.Entries(msg) {
		got, ok := e.ContextMap()[key]
		if !ok {
			continue
		}
		if reflect.DeepEqual(got, want) {
			return
		}
		seen = append(seen, got)
	}
	tb.Errorf("%q: field %q=%v not found (seen %v)", msg, key, want, seen)
}

// AssertEmbedTarget fails tb unless msg carries the method and model.
func (t *TestLogger) AssertEmbedTarget(tb testing.TB, msg, method, model string) {
	tb.Helper()
	t.AssertField(tb, msg, "embed.method", method)
	t.AssertField(tb, msg, "embed.model", model)
}

// AssertWorker fails tb unless msg was logged by worker id.
func (t *TestLogger) AssertWorker(tb testing.TB, msg string, id int) {
	tb.Helper()
	t.AssertField(tb, msg, "worker.id", id)
}

// AssertNoSecrets fails tb if any message or string field matches the
// default redaction rules, or a sensitive key holds an unredacted value.
func (t *TestLogger) AssertNoSecrets(tb testing.TB) {
	tb.Helper()
	rules := NewDefaultConfig().Redaction
	patterns := make([]*regexp.Regexp, 0, len(rules.Patterns))
	for _, p := range rules.Patterns {
		patterns = append(patterns, regexp.MustCompile(p))
	}
	leaks := func(s string) bool {
		for _, re := range patterns {
			if re.MatchString(s) {
				return true
			}
		}
		return false
	}

	for _, e := range t.logs.All() {
		if leaks(e.Message) {
			tb.Errorf("secret in message %q", e.Message)
		}
		for key, v := range e.ContextMap() {
			s, ok := v.(string)
			if !ok || s == "" || strings.HasPrefix(s, "[REDACTED") {
				continue
			}
			if leaks(s) || sensitiveKey(key, rules.Fields) {
				tb.Errorf("%q: field %q not redacted", e.Message, key)
			}
		}
	}
}

func sensitiveKey(key string, names []string) bool {
	key = strings.ToLower(key)
	for _, n := range names {
		if strings.Contains(key, n) {
			return true
		}
	}
	return false
}
