// Package stdlogadapter implements gatekeep.Logger on the standard
// library log package.
package stdlogadapter

import (
	"log"
)

// StdLogger implements gatekeep.Logger using a *log.Logger.
type StdLogger struct {
	logger *log.Logger
}

// New creates a StdLogger. A nil logger selects log.Default().
func New(l *log.Logger) *StdLogger {
	if l == nil {
		l = log.Default()
	}
	return &StdLogger{logger: l}
}

// Debugf logs a debug-level message (a prefixed Printf in std log).
func (s *StdLogger) Debugf(format string, args ...interface{}) {
	s.logger.Printf("[DEBUG] "+format, args...)
}

// Errorf logs an error-level message.
func (s *StdLogger) Errorf(format string, args ...interface{}) {
	s.logger.Printf("[ERROR] "+format, args...)
}
