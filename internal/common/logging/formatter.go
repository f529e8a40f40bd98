package logging

import (
	"io"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ConfigureCommandLineLogging sends logs to stderr, leaving stdout free for command output.
func ConfigureCommandLineLogging() {
	ConfigureLogging(os.Stderr, log.InfoLevel)
}

// ConfigureLogging sets up the standard logger with full timestamps.
func ConfigureLogging(out io.Writer, level log.Level) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(out)
	log.SetLevel(level)
}

// SetLevel parses level, e.g. "debug" or "warn", and applies it to the standard logger.
func SetLevel(level string) error {
	l, err := log.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", level)
	}
	log.SetLevel(l)
	return nil
}
