package shared

import (
	"os"

	"github.com/charmbracelet/log"
)

// SetupLogger configures a console logger at the named level, with debug
// overriding the level entirely.
func SetupLogger(level string, debug bool) *log.Logger {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		parsed = log.InfoLevel
	}
	if debug {
		parsed = log.DebugLevel
	}

	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           parsed,
		ReportTimestamp: true,
	})
}
