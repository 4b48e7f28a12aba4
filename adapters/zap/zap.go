// Package zapadapter implements gatekeep.Logger on go.uber.org/zap.
package zapadapter

import (
	"go.uber.org/zap"
)

// ZapLogger implements gatekeep.Logger using a zap.SugaredLogger.
type ZapLogger struct {
	logger *zap.SugaredLogger
}

// New creates a ZapLogger from a zap.Logger. A nil logger selects
// zap.NewNop(), which discards all messages.
func New(l *zap.Logger) *ZapLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return &ZapLogger{logger: l.Sugar()}
}

// Debugf logs a debug-level message with formatting.
func (z *ZapLogger) Debugf(format string, args ...interface{}) {
	z.logger.Debugf(format, args...)
}

// Errorf logs an error-level message with formatting.
func (z *ZapLogger) Errorf(format string, args ...interface{}) {
	z.logger.Errorf(format, args...)
}
