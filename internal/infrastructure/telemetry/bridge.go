package telemetry

import (
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.uber.org/zap/zapcore"
)

// LogCore returns a zap core that forwards entries at or above level to the
// OpenTelemetry log pipeline. It returns nil when log export is off, which
// logger.New treats as "no extra core".
func (p *Providers) LogCore(level zapcore.Level) zapcore.Core {
	if p == nil || p.Logs == nil {
		return nil
	}
	core := otelzap.NewCore(p.config.ServiceName, otelzap.WithLoggerProvider(p.Logs))
	return &levelFilterCore{Core: core, level: level}
}

// levelFilterCore drops entries below level before they reach the wrapped core.
type levelFilterCore struct {
	zapcore.Core
	level zapcore.Level
}

func (c *levelFilterCore) Enabled(lvl zapcore.Level) bool {
	return lvl >= c.level && c.Core.Enabled(lvl)
}

func (c *levelFilterCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(entry.Level) {
		return ce
	}
	return c.Core.Check(entry, ce)
}

func (c *levelFilterCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelFilterCore{Core: c.Core.With(fields), level: c.level}
}
