package framestream

import (
	"log/slog"

	"go.uber.org/zap"
)

// Logger is the interface for structured logging.
// It is satisfied by *slog.Logger from the standard library.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// defaultLogger returns the default slog logger from the standard library.
func defaultLogger() Logger {
	return slog.Default()
}

// zapLogger adapts a *zap.Logger to Logger.
type zapLogger struct {
	l *zap.SugaredLogger
}

// NewZapLogger returns a Logger backed by l. Arguments are alternating
// key-value pairs, as with slog.
func NewZapLogger(l *zap.Logger) Logger {
	return &zapLogger{l: l.Sugar()}
}

func (z *zapLogger) Debug(msg string, args ...any) { z.l.Debugw(msg, args...) }
func (z *zapLogger) Info(msg string, args ...any)  { z.l.Infow(msg, args...) }
func (z *zapLogger) Warn(msg string, args ...any)  { z.l.Warnw(msg, args...) }
func (z *zapLogger) Error(msg string, args ...any) { z.l.Errorw(msg, args...) }
