package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Logger is a thin wrapper over zap's sugared logger with key/value methods.
type Logger struct {
	SugaredLogger *zap.SugaredLogger

	// base carries every field except component, so Component replaces
	// rather than stacks.
	base *zap.SugaredLogger
}

// New builds a logger. "prod"/"production" selects JSON output at info
// level; anything else is the development console encoder at debug level.
func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	sugar := zapLogger.Sugar()
	return &Logger{SugaredLogger: sugar, base: sugar}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	sugar := zap.NewNop().Sugar()
	return &Logger{SugaredLogger: sugar, base: sugar}
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, keysAndValues...)
}

func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Fatalw(msg, keysAndValues...)
}

func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With(keysAndValues...),
		base:          l.baseLogger().With(keysAndValues...),
	}
}

// Component scopes the logger to a named part of the service ("Cart", "API").
// A logger carries at most one component: the latest name wins.
func (l *Logger) Component(name string) *Logger {
	base := l.baseLogger()
	return &Logger{SugaredLogger: base.With("component", name), base: base}
}

func (l *Logger) baseLogger() *zap.SugaredLogger {
	if l.base != nil {
		return l.base
	}
	return l.SugaredLogger
}
