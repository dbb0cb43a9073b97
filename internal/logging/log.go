// Package logging provides the structured logger shared across velocitycmdb.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide logger instance. Unlike most state in this
// codebase it is not threaded through cmdctx.Context: logging is the one
// ambient concern every package needs immediate access to, including
// packages that run before a Context can be constructed (flag parsing,
// config loading).
var Logger = logrus.New()

func init() {
	Logger.SetOutput(os.Stderr)
	Logger.SetLevel(logrus.InfoLevel)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

// SetLevel sets the logging level from a string such as "debug" or "warn".
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	Logger.SetLevel(lvl)
	return nil
}

// SetOutput redirects log output.
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// SetJSONFormat switches the logger to JSON output, used by `--json` CLI mode
// so log lines interleave cleanly with progress events on stdout pipes.
func SetJSONFormat() {
	Logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
}

// WithField returns an entry carrying a single field.
func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}

// WithFields returns an entry carrying multiple fields.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Logger.WithFields(fields)
}

// WithDevice returns an entry scoped to a device, used by every
// SSH-facing operation.
func WithDevice(device string) *logrus.Entry {
	return Logger.WithField("device", device)
}

// WithOperation returns an entry scoped to a named operation.
func WithOperation(operation string) *logrus.Entry {
	return Logger.WithField("operation", operation)
}

// WithJob returns an entry scoped to a job_id, used by progress emitters
// so every log line for a run can be correlated with its progress events.
func WithJob(jobID string) *logrus.Entry {
	return Logger.WithField("job_id", jobID)
}
