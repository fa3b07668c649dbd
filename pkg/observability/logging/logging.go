// Package logging provides a process-wide structured logger backed by zap.
// Call InitLoggerFromEnv once at startup; the package-level helpers are safe
// to use from any goroutine and fall back to a no-op logger before init.
package logging

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
	sugar  = logger.Sugar()
)

// InitLoggerFromEnv initializes the global logger from environment variables.
// LOG_LEVEL selects the minimum level (debug, info, warn, error; default info).
// LOG_FORMAT selects the encoder (json or console; default json).
func InitLoggerFromEnv() (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if err := level.Set(strings.ToLower(raw)); err != nil {
			return nil, err
		}
	}

	cfg := zap.NewProductionConfig()
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "console") {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	SetLogger(l)
	return l, nil
}

// SetLogger replaces the global logger. Intended for init and tests.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
	sugar = l.Sugar()
}

// Logger returns the current global logger.
func Logger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Debugf(format string, args ...interface{}) {
	mu.RLock()
	s := sugar
	mu.RUnlock()
	s.Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	mu.RLock()
	s := sugar
	mu.RUnlock()
	s.Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	mu.RLock()
	s := sugar
	mu.RUnlock()
	s.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	mu.RLock()
	s := sugar
	mu.RUnlock()
	s.Errorf(format, args...)
}

func Fatalf(format string, args ...interface{}) {
	mu.RLock()
	s := sugar
	mu.RUnlock()
	s.Fatalf(format, args...)
}
