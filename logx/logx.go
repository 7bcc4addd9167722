package logx

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. Console encoding keeps run output readable
// when the analyzer is driven from a terminal.
func New(level string) *zap.SugaredLogger {
	lvl := zapcore.InfoLevel
	switch level {
	case "debug":
		lvl = zapcore.DebugLevel
	case "warn":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true

	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return log.Sugar()
}

// Nop returns a discard logger for tests.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
