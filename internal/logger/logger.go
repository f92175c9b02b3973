// Package logger wraps zap with level initialization for the client.
package logger

import (
	"go.uber.org/zap"
)

// Logger holds the configured zap logger.
type Logger struct {
	// Log is the underlying zap logger, nop until Init is called.
	Log *zap.Logger
}

// New returns a Logger with a no-op zap logger so that callers may log
// safely before Init.
func New() *Logger {
	return &Logger{Log: zap.NewNop()}
}

// Init builds a production zap logger at the given level
// ("debug", "info", "warn", "error"). Returns an error for an
// unrecognized level or a failed build.
func (l *Logger) Init(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	z, err := cfg.Build()
	if err != nil {
		return err
	}
	l.Log = z
	return nil
}
