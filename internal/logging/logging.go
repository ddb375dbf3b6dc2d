// Package logging configures the diagnostic logger. User-facing output goes
// through internal/output; logrus carries debug traces behind --debug.
package logging

import (
	"io"

	log "github.com/sirupsen/logrus"
)

// Setup points the standard logrus logger at w. Debug enables debug traces,
// otherwise only warnings and errors are emitted.
func Setup(debug bool, w io.Writer) {
	log.SetOutput(w)
	log.SetFormatter(&log.TextFormatter{
		DisableTimestamp: true,
		DisableQuote:     true,
	})
	if debug {
		log.SetLevel(log.DebugLevel)
		return
	}
	log.SetLevel(log.WarnLevel)
}

// IsDebug reports whether debug traces are enabled.
func IsDebug() bool {
	return log.IsLevelEnabled(log.DebugLevel)
}
