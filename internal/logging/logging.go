// Package logging builds the session logger.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Cyclone1070/aishell/internal/config"
)

// Logger wraps a zap logger whose level can be raised to debug at runtime.
type Logger struct {
	*zap.Logger
	level zap.AtomicLevel
	base  zapcore.Level
}

// New builds a logger from cfg. Without a file, a console encoder writes to stderr;
// with one, JSON lines are appended to it.
func New(cfg config.LogConfig) (*Logger, error) {
	base, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(base)
	zcfg.DisableStacktrace = true
	zcfg.Sampling = nil
	if cfg.File == "" {
		zcfg.Encoding = "console"
		zcfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		zcfg.OutputPaths = []string{"stderr"}
	} else {
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zcfg.OutputPaths = []string{config.ExpandHome(cfg.File)}
	}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return &Logger{Logger: logger, level: zcfg.Level, base: base}, nil
}

// Nop returns a logger that discards everything but still honours SetDebug.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop(), level: zap.NewAtomicLevelAt(zapcore.WarnLevel), base: zapcore.WarnLevel}
}

// SetDebug switches between debug and the configured level.
func (l *Logger) SetDebug(on bool) {
	if on {
		l.level.SetLevel(zapcore.DebugLevel)
		return
	}
	l.level.SetLevel(l.base)
}

// Debugging reports whether debug output is enabled.
func (l *Logger) Debugging() bool {
	return l.level.Enabled(zapcore.DebugLevel)
}

// With returns a child logger sharing the same level.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...), level: l.level, base: l.base}
}

// Sync flushes buffered entries. Errors from syncing a terminal are ignored.
func (l *Logger) Sync() {
	_ = l.Logger.Sync()
}
