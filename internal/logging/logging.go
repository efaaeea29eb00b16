// Package logging provides the structured logging facade used across the
// service. Components log through a Logger carrying contextual Fields; the
// backend is a process-wide zap logger configured once at startup.
package logging

import (
	"sort"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields represents structured log fields
type Fields map[string]any

// Logger is the logging interface components depend on
type Logger interface {
	Debug(msg string, fields ...Fields)
	Info(msg string, fields ...Fields)
	Warn(msg string, fields ...Fields)
	Error(msg string, fields ...Fields)
	WithFields(fields Fields) Logger
}

var (
	mu   sync.RWMutex
	root *zap.Logger = zap.NewNop()
)

// Configure installs the process-wide backend logger. Level is one of
// debug, info, warn, error; anything else falls back to info.
func Configure(level string, development bool) error {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	switch level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}

	mu.Lock()
	root = logger
	mu.Unlock()
	return nil
}

// WithFields returns a logger bound to the given contextual fields
func WithFields(fields Fields) Logger {
	return &zapLogger{fields: fields}
}

type zapLogger struct {
	fields Fields
}

func (l *zapLogger) WithFields(fields Fields) Logger {
	merged := make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &zapLogger{fields: merged}
}

func (l *zapLogger) Debug(msg string, fields ...Fields) { l.log(zapcore.DebugLevel, msg, fields) }
func (l *zapLogger) Info(msg string, fields ...Fields)  { l.log(zapcore.InfoLevel, msg, fields) }
func (l *zapLogger) Warn(msg string, fields ...Fields)  { l.log(zapcore.WarnLevel, msg, fields) }
func (l *zapLogger) Error(msg string, fields ...Fields) { l.log(zapcore.ErrorLevel, msg, fields) }

func (l *zapLogger) log(level zapcore.Level, msg string, extra []Fields) {
	mu.RLock()
	backend := root
	mu.RUnlock()

	merged := make(Fields, len(l.fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for _, f := range extra {
		for k, v := range f {
			merged[k] = v
		}
	}

	// Stable field order keeps log lines diffable in tests
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	zapFields := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		zapFields = append(zapFields, zap.Any(k, merged[k]))
	}

	switch level {
	case zapcore.DebugLevel:
		backend.Debug(msg, zapFields...)
	case zapcore.InfoLevel:
		backend.Info(msg, zapFields...)
	case zapcore.WarnLevel:
		backend.Warn(msg, zapFields...)
	default:
		backend.Error(msg, zapFields...)
	}
}
