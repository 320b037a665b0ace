package utils

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
)

var Log = logrus.New()

func SetLogLevel(level string) error {
	// We are not using logrus' trace and panic levels
	switch strings.ToLower(level) {
	case "debug":
		Log.SetLevel(log.DebugLevel)
	case "info":
		Log.SetLevel(log.InfoLevel)
	case "warning", "warn":
		Log.SetLevel(log.WarnLevel)
	case "error":
		Log.SetLevel(log.ErrorLevel)
	case "fatal":
		Log.SetLevel(log.FatalLevel)
	default:
		return fmt.Errorf("bad log level %q", level)
	}
	return nil
}

// retryLogger feeds retryablehttp's key/value diagnostics into logrus.
type retryLogger struct {
	l *logrus.Logger
}

// RetryLogger returns a retryablehttp logger writing to Log.
func RetryLogger() retryablehttp.LeveledLogger {
	return retryLogger{l: Log}
}

func (r retryLogger) entry(keysAndValues []interface{}) *logrus.Entry {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return r.l.WithFields(fields)
}

func (r retryLogger) Error(msg string, keysAndValues ...interface{}) {
	r.entry(keysAndValues).Error(msg)
}

func (r retryLogger) Info(msg string, keysAndValues ...interface{}) {
	// retryablehttp reports every request at info level; that is noise here
	r.entry(keysAndValues).Debug(msg)
}

func (r retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	r.entry(keysAndValues).Debug(msg)
}

func (r retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	r.entry(keysAndValues).Warn(msg)
}

// SplitList splits a comma-separated flag value, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
