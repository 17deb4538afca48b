// Package logging builds the structured, run-id-tagged logger for the Domino
// command line tools; the cmd/domino subcommands do not write through it and
// print refusals and errors directly instead. Grounded on
// core/system_health_logging.go's logrus setup (JSON formatter, level from
// config).
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logrus logger writing JSON lines to stderr at the given
// level. An unparsable level falls back to info: bad config degrades, it
// does not panic the CLI.
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stderr)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// WithRunID returns an entry carrying a run_id field, used to correlate every
// log line a single CLI invocation emits. The run id is otherwise
// meaningless to the simulation itself — it never participates in a
// deterministic calculation.
func WithRunID(log *logrus.Logger, runID string) *logrus.Entry {
	return log.WithField("run_id", runID)
}
