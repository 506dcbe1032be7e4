package mlog

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	l   atomic.Pointer[zap.Logger]

	nop = zap.NewNop()
)

func init() {
	l.Store(newLogger(false))
}

func newLogger(json bool) *zap.Logger {
	out := zapcore.Lock(os.Stderr)
	if json {
		return zap.New(zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), out, lvl))
	}
	return zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), out, lvl))
}

// Configure replaces the global logger. level is one of debug, info, warn, error.
func Configure(level string, json bool) error {
	if level != "" {
		parsed, err := zapcore.ParseLevel(strings.ToLower(level))
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		lvl.SetLevel(parsed)
	}
	l.Store(newLogger(json))
	return nil
}

func L() *zap.Logger {
	return l.Load()
}

func SetLevel(l zapcore.Level) {
	lvl.SetLevel(l)
}

func Lvl() zapcore.Level {
	return lvl.Level()
}

func Nop() *zap.Logger {
	return nop
}

// OrNop returns logger, or the nop logger when it is nil.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return nop
	}
	return logger
}
