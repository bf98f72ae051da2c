// File: internal/logging/logrus.go
package logging

import (
	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-zraid/internal/interfaces"
)

// LogrusSink adapts a logrus logger to the core's injected Logger
// interface.
type LogrusSink struct {
	logger *logrus.Logger
}

// NewLogrusSink wraps an existing logrus logger.
func NewLogrusSink(logger *logrus.Logger) *LogrusSink {
	return &LogrusSink{logger: logger}
}

// NewDefaultSink builds a text-formatted stderr sink whose level
// follows the usual verbose/quiet flags.
func NewDefaultSink(verbose bool, quiet bool) *LogrusSink {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{})
	switch {
	case quiet:
		logger.SetLevel(logrus.ErrorLevel)
	case verbose:
		logger.SetLevel(logrus.DebugLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}
	return &LogrusSink{logger: logger}
}

// Logf implements interfaces.Logger.
func (s *LogrusSink) Logf(level interfaces.LogLevel, format string, args ...any) {
	switch level {
	case interfaces.LogDebug:
		s.logger.Debugf(format, args...)
	case interfaces.LogInfo:
		s.logger.Infof(format, args...)
	case interfaces.LogWarn:
		s.logger.Warnf(format, args...)
	case interfaces.LogError:
		s.logger.Errorf(format, args...)
	default:
		s.logger.Infof(format, args...)
	}
}
