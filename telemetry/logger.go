// Package telemetry provides the structured logging sink the engine uses
// for non-fatal parsing warnings that are logged but never turned into an
// error: an unrecognized Transfer-Encoding value and discarded trailer
// headers. Bytes that follow the final chunk are not logged. It never
// participates in the state machine's control flow.
//
// Backed by go.uber.org/zap for structured, leveled output.
package telemetry

import "go.uber.org/zap"

// Logger is the logging sink Connection accepts. Warn is the only method
// the engine calls; Sync lets an embedder flush on shutdown.
type Logger interface {
	Warn(msg string, fields ...Field)
	Sync() error
}

// Field is a structured log attribute.
type Field = zap.Field

// String, Int and Err mirror the zap field constructors an embedder
// already knows, so call sites read identically to zap.
var (
	String = zap.String
	Int    = zap.Int
	Err    = zap.Error
)

type zapLogger struct {
	l *zap.Logger
}

// NewProduction returns a Logger backed by zap's production encoder
// (JSON, epoch timestamps, sampling enabled).
func NewProduction() (Logger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &zapLogger{l: l}, nil
}

// NewNop returns a Logger that discards everything, for embedders that
// don't want engine warnings surfaced (or for tests).
func NewNop() Logger {
	return &zapLogger{l: zap.NewNop()}
}

func (z *zapLogger) Warn(msg string, fields ...Field) {
	z.l.Warn(msg, fields...)
}

func (z *zapLogger) Sync() error {
	return z.l.Sync()
}
