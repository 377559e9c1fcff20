// Package logger wraps zap to provide application-wide structured logging.
package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// Logger holds the underlying zap logger instance.
type Logger struct {
	// Log is the configured zap logger; valid after Init.
	Log *zap.Logger
}

// New returns a Logger with a no-op zap instance so it is safe to use
// before Init is called.
func New() *Logger {
	return &Logger{Log: zap.NewNop()}
}

// Init configures the logger at the given level ("debug", "info", "warn",
// "error"). Returns an error if the level string cannot be parsed or the
// logger cannot be built.
func (l *Logger) Init(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl

	log, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	l.Log = log
	return nil
}
