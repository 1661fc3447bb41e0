// Package logging wires up the process-wide zap logger. It mirrors the
// teacher's pkg/logging: a package-level atomic level, a sugared logger
// built once at package init, and a SetLevel entry point driven by the LOG_LEVEL
// environment variable or CLI verbosity flags.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.Mutex
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	base   *zap.Logger
	sugar  *zap.SugaredLogger
)

func init() {
	rebuild()
}

func rebuild() {
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	cfg.DisableStacktrace = true

	l, err := cfg.Build()
	if err != nil {
		// Fall back to a no-op logger rather than taking the whole process
		// down over a logging misconfiguration.
		l = zap.NewNop()
	}
	base = l
	sugar = l.Sugar()
}

// SetLevel changes the process-wide log level.
func SetLevel(l zapcore.Level) {
	mu.Lock()
	defer mu.Unlock()
	level.SetLevel(l)
}

// L returns the process-wide structured logger.
func L() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return base
}

// S returns the process-wide sugared logger.
func S() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	return sugar
}

// NewLogger builds a fresh console-encoded logger that writes only to sink,
// filtered by the process-wide level. It does not also write to the
// process-wide console output.
func NewLogger(sink zapcore.WriteSyncer) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(sink), level),
	)
	return zap.New(core)
}
