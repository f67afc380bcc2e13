// Package buildlog builds the *zap.Logger used throughout the spec parser,
// macro engine, orchestrator, and package writer, keeping construction (and
// its verbose/quiet CLI wiring) in one place instead of scattering
// zap.NewProductionConfig() calls.
package buildlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a console-friendly logger. verbose raises the level to debug;
// quiet suppresses everything below warn. The two are mutually exclusive;
// quiet wins if both are set.
func New(verbose, quiet bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = ""
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	switch {
	case quiet:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case verbose:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	return cfg.Build()
}

// Nop returns a logger that discards everything, for tests and library
// callers that haven't opted into logging.
func Nop() *zap.Logger {
	return zap.NewNop()
}
