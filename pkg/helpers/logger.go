package helpers

import (
	"io"
	"os"

	"github.com/samber/oops"
	"github.com/sirupsen/logrus"
)

// NewLogger creates a configured Logrus logger
func NewLogger(appName, env string) *logrus.Logger {
	return newLogger(os.Stdout, appName, env)
}

func newLogger(w io.Writer, appName, env string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	if env == "development" {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	logger.WithFields(logrus.Fields{"app": appName, "env": env}).Info("logger initialized")
	return logger
}

// ErrorFields flattens an error into log fields. oops errors contribute their
// code and context attributes so infrastructure failures stay searchable.
func ErrorFields(err error, fields logrus.Fields) logrus.Fields {
	if fields == nil {
		fields = logrus.Fields{}
	}
	if err == nil {
		return fields
	}
	fields["error"] = err.Error()
	if oopsErr, ok := oops.AsOops(err); ok {
		if code := oopsErr.Code(); code != nil && code != "" {
			fields["code"] = code
		}
		for k, v := range oopsErr.Context() {
			if _, taken := fields[k]; !taken {
				fields[k] = v
			}
		}
	}
	return fields
}

// LogError Convenience methods to keep a unified logging interface
func LogError(logger logrus.FieldLogger, msg string, err error, fields logrus.Fields) {
	logger.WithFields(ErrorFields(err, fields)).Error(msg)
}

// LogWarn logs a failure that did not abort the operation.
func LogWarn(logger logrus.FieldLogger, msg string, err error, fields logrus.Fields) {
	logger.WithFields(ErrorFields(err, fields)).Warn(msg)
}
