// internal/logging/logging.go

package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger. Unknown levels fall back to info.
func NewLogger(level string, json bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if json {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// CronLogger adapts a Logrus logger to the robfig/cron Logger interface.
// Cron's own info chatter is logged at debug level.
type CronLogger struct {
	Logger *logrus.Logger
}

// Info logs routine scheduler messages.
func (l CronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.Logger.WithFields(fields(keysAndValues)).Debug(msg)
}

// Error logs scheduler failures, including recovered panics.
func (l CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.Logger.WithFields(fields(keysAndValues)).WithError(err).Error(msg)
}

// fields turns cron's alternating key/value list into Logrus fields.
func fields(keysAndValues []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		f[key] = keysAndValues[i+1]
	}
	return f
}
