// internal/logging/sampling.go
package logging

import (
	"go.uber.org/zap/zapcore"
)

// newSampledCore wraps core with per-level sampling from cfg.Levels.
// Error and above are never sampled; levels without an entry pass through.
func newSampledCore(core zapcore.Core, cfg SamplingConfig) zapcore.Core {
	if !cfg.Enabled {
		return core
	}

	cores := []zapcore.Core{
		&levelFilterCore{Core: core, lo: zapcore.ErrorLevel, hi: zapcore.FatalLevel},
	}

	for lvl := TraceLevel; lvl <= zapcore.WarnLevel; lvl++ {
		exact := &levelFilterCore{Core: core, lo: lvl, hi: lvl}
		rate, ok := cfg.Levels[lvl]
		if !ok {
			cores = append(cores, exact)
			continue
		}
		cores = append(cores, zapcore.NewSamplerWithOptions(exact, cfg.Tick.Duration(), rate.Initial, rate.Thereafter))
	}

	return zapcore.NewTee(cores...)
}

// levelFilterCore passes only entries with lo <= level <= hi.
type levelFilterCore struct {
	zapcore.Core
	lo, hi zapcore.Level
}

func (c *levelFilterCore) Enabled(lvl zapcore.Level) bool {
	if lvl < c.lo || lvl > c.hi {
		return false
	}
	return c.Core.Enabled(lvl)
}

func (c *levelFilterCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(e.Level) {
		return ce
	}
	return c.Core.Check(e, ce)
}

func (c *levelFilterCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelFilterCore{
		Core: c.Core.With(fields),
		lo:   c.lo,
		hi:   c.hi,
	}
}
