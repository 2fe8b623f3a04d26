// Package diag holds the logger shared by all timecurve packages and the
// internal consistency checks built on it.
package diag

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

// loggerPtr stores the active logger. Accessed atomically so that SetLogger
// can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[zerolog.Logger]

func init() {
	l := zerolog.Nop()
	loggerPtr.Store(&l)
}

// SetLogger replaces the shared logger. Passing nil restores the default,
// silent logger.
func SetLogger(l *zerolog.Logger) {
	if l == nil {
		nop := zerolog.Nop()
		l = &nop
	}
	loggerPtr.Store(l)
}

// Logger returns the shared logger.
func Logger() *zerolog.Logger {
	return loggerPtr.Load()
}
