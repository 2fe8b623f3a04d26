package timecurve

import (
	"github.com/rs/zerolog"

	"honnef.co/go/timecurve/internal/diag"
)

// SetLogger configures the logger for timecurve and all its sub-packages. By
// default, nothing is logged.
//
// SetLogger is safe for concurrent use.
//
// Log levels used:
//   - [zerolog.DebugLevel]: cache rebuilds
//   - [zerolog.WarnLevel]: degraded results, such as dangling weak references
//     or shapes that cannot be differentiated
//   - [zerolog.ErrorLevel]: failed internal consistency checks
func SetLogger(l zerolog.Logger) {
	diag.SetLogger(&l)
}

// Logger returns the current logger.
func Logger() *zerolog.Logger {
	return diag.Logger()
}
