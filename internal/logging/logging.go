// Package logging builds the shared zap logger. Every binary and package
// logs through a *zap.SugaredLogger created here so encoding and level
// handling stay uniform.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a production JSON logger named after the owning service.
// Debug mode lowers the level and keeps caller annotations.
func New(service string, debug bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.TimeKey = "ts"
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Named(service).Sugar(), nil
}

// NewDevelopment returns a console logger for interactive runs: colored
// levels, human-readable timestamps, debug on.
func NewDevelopment(service string) (*zap.SugaredLogger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Named(service).Sugar(), nil
}

// Nop returns a logger that discards everything. Used by tests and as a
// default when a component is constructed without one.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
