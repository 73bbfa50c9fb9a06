// Package log provides the structured logger used across every component
// of the trust core. It mirrors the embeddable-interface-plus-audit-method
// shape used throughout the teacher codebase's command wrappers: a small
// interface that callers can wrap (to add a Print method for a foreign
// logging contract, say) without losing the underlying leveled and audit
// logging behavior.
package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the leveled, structured logging interface used throughout
// this module. Audit is distinct from the other levels: it is the
// operational mirror of an audit.Entry append, never the signed
// record of truth itself.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warning(msg string, fields ...zap.Field)
	Err(msg string, fields ...zap.Field)
	Audit(event string, fields ...zap.Field)

	// With returns a Logger that always includes the given fields.
	With(fields ...zap.Field) Logger
}

type zapLogger struct {
	z *zap.Logger
}

// New builds a production JSON logger tagged with the given service
// name, matching the per-service logger construction every command in
// the teacher codebase performs at startup.
func New(service string) Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	z, err := cfg.Build()
	if err != nil {
		// Logging setup failing is itself unrecoverable; fall back to a
		// minimal logger rather than panic on a leaf dependency.
		z = zap.NewNop()
	}
	return &zapLogger{z: z.With(zap.String("service", service))}
}

// NewTest builds a logger suitable for test output (human-readable,
// development encoder), matching the teacher's pattern of a distinct
// test-oriented constructor from the production one.
func NewTest() Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stdout"}
	z, err := cfg.Build()
	if err != nil {
		z = zap.NewNop()
	}
	return &zapLogger{z: z}
}

// NewNop returns a Logger that discards everything, for components that
// accept an optional logger.
func NewNop() Logger {
	return &zapLogger{z: zap.NewNop()}
}

func (l *zapLogger) Debug(msg string, fields ...zap.Field)   { l.z.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...zap.Field)    { l.z.Info(msg, fields...) }
func (l *zapLogger) Warning(msg string, fields ...zap.Field) { l.z.Warn(msg, fields...) }
func (l *zapLogger) Err(msg string, fields ...zap.Field)     { l.z.Error(msg, fields...) }

func (l *zapLogger) Audit(event string, fields ...zap.Field) {
	l.z.Info(event, append(fields, zap.Bool("audit", true))...)
}

func (l *zapLogger) With(fields ...zap.Field) Logger {
	return &zapLogger{z: l.z.With(fields...)}
}

// Sync flushes any buffered log entries. Callers should defer Sync on
// process exit; sync failures against os.Stdout are expected on some
// platforms and are intentionally ignored here.
func Sync(l Logger) {
	if zl, ok := l.(*zapLogger); ok {
		_ = zl.z.Sync()
	}
}
