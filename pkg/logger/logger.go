// Package logger wraps logrus behind a small interface so that packages log
// structured fields without importing logrus themselves.
package logger

import (
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger is the logging surface used across the reconciler
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields Fields) Logger
	WithError(err error) Logger
	WithComponent(component string) Logger
}

// Fields are structured key/value pairs attached to a log line
type Fields map[string]interface{}

// entryLogger keeps a logrus entry so fields accumulate across With* calls
type entryLogger struct {
	entry *logrus.Entry
}

// NewLogger builds a logger from config. A nil config means DefaultConfig.
func NewLogger(config *Config) (Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger configuration: %w", err)
	}

	w, err := config.writer()
	if err != nil {
		return nil, err
	}

	base := logrus.New()
	base.SetLevel(levels[config.Level])
	base.SetOutput(w)
	base.SetFormatter(config.formatter())
	base.SetReportCaller(config.CallerInfo)
	return &entryLogger{entry: logrus.NewEntry(base)}, nil
}

// NewWithWriter returns a timestamp-free logger writing to w. Unknown levels
// fall back to logrus' default.
func NewWithWriter(w io.Writer, level Level, format Format) Logger {
	config := &Config{Format: format, DisableTimestamp: true}

	base := logrus.New()
	if lvl, ok := levels[level]; ok {
		base.SetLevel(lvl)
	}
	base.SetOutput(w)
	base.SetFormatter(config.formatter())
	return &entryLogger{entry: logrus.NewEntry(base)}
}

func (l *entryLogger) Debug(args ...interface{})                 { l.entry.Debug(args...) }
func (l *entryLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *entryLogger) Info(args ...interface{})                  { l.entry.Info(args...) }
func (l *entryLogger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *entryLogger) Warn(args ...interface{})                  { l.entry.Warn(args...) }
func (l *entryLogger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *entryLogger) Error(args ...interface{})                 { l.entry.Error(args...) }
func (l *entryLogger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

func (l *entryLogger) WithField(key string, value interface{}) Logger {
	return &entryLogger{entry: l.entry.WithField(key, value)}
}

func (l *entryLogger) WithFields(fields Fields) Logger {
	return &entryLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *entryLogger) WithError(err error) Logger {
	return &entryLogger{entry: l.entry.WithError(err)}
}

func (l *entryLogger) WithComponent(component string) Logger {
	return l.WithField("component", component)
}

var (
	globalMu sync.RWMutex
	global   = mustDefault()
)

func mustDefault() Logger {
	l, err := NewLogger(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return l
}

// SetGlobalLogger replaces the process-wide logger. The CLI calls it once
// the settings are loaded.
func SetGlobalLogger(l Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	global = l
}

// GetGlobalLogger returns the process-wide logger
func GetGlobalLogger() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// WithComponent tags the process-wide logger with a component name
func WithComponent(component string) Logger {
	return GetGlobalLogger().WithComponent(component)
}
