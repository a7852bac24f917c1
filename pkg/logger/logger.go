// Package logger constructs the structured loggers used throughout swaydb.
// Every subsystem takes a *zap.SugaredLogger in its Config, the same
// dependency-injection shape the storage and index packages use.
package logger

import "go.uber.org/zap"

// New builds a production zap logger scoped to the given service/component
// name. Callers that need a no-op logger for tests should use Nop instead.
func New(service string) *zap.SugaredLogger {
	base, err := zap.NewProduction()
	if err != nil {
		base = zap.NewNop()
	}
	return base.Sugar().Named(service)
}

// Nop returns a logger that discards all output, for use in unit tests
// where structured logging would only add noise.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
