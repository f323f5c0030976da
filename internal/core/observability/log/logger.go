// Package log is a thin facade over zap used by the arena engine. It
// exposes a narrow interface so core packages never depend on zap
// directly and tests can swap in a no-op logger.
package log

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the logging surface the engine uses.
type Log interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)

	With(fields ...zap.Field) Log
}

var _ Log = (*Logger)(nil)

var (
	innerLogger          *Logger
	loggerInitializeOnce sync.Once
)

// Logger wraps a zap.Logger.
type Logger struct {
	zapLogger *zap.Logger
}

// New builds a production JSON logger writing to stderr at the given
// level. The first logger constructed becomes the one returned by
// Provide.
func New(level zapcore.Level) *Logger {
	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}

	zapLogger, err := config.Build()
	if err != nil {
		panic(err)
	}

	logger := &Logger{zapLogger: zapLogger}

	loggerInitializeOnce.Do(func() { innerLogger = logger })

	return logger
}

// Provide returns the first constructed logger, or a no-op logger when
// none has been built yet.
func Provide() *Logger {
	if innerLogger == nil {
		return Nop()
	}

	return innerLogger
}

// Nop returns a logger that discards everything. Handy in tests.
func Nop() *Logger {
	return &Logger{zapLogger: zap.NewNop()}
}

func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.zapLogger.Debug(msg, fields...)
}

func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.zapLogger.Info(msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.zapLogger.Warn(msg, fields...)
}

func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.zapLogger.Error(msg, fields...)
}

// With returns a child logger with the fields attached to every entry.
func (l *Logger) With(fields ...zap.Field) Log {
	return &Logger{zapLogger: l.zapLogger.With(fields...)}
}
