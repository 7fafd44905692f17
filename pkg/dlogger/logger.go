// Package dlogger builds the zap loggers used across stele.
package dlogger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Supported log levels, by increasing order of verbosity
const (
	LogLevelNone  = "none"
	LogLevelError = "error"
	LogLevelWarn  = "warn"
	LogLevelInfo  = "info"
	LogLevelDebug = "debug"
)

// GetLogger returns a production zap logger for the given level.
//
// Level "none" yields a no-op logger.
func GetLogger(logLevel string) (*zap.Logger, error) {
	var level zapcore.Level
	switch strings.ToLower(logLevel) {
	case LogLevelNone:
		return zap.NewNop(), nil
	case LogLevelError:
		level = zapcore.ErrorLevel
	case LogLevelWarn:
		level = zapcore.WarnLevel
	case LogLevelInfo, "":
		level = zapcore.InfoLevel
	case LogLevelDebug:
		level = zapcore.DebugLevel
	default:
		return nil, fmt.Errorf("invalid log level %q: expected one of none, error, warn, info, debug", logLevel)
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.DisableStacktrace = level != zapcore.DebugLevel
	config.OutputPaths = []string{"stderr"}
	return config.Build()
}

// MustGetLogger is like GetLogger but panics on an invalid level
func MustGetLogger(logLevel string) *zap.Logger {
	l, err := GetLogger(logLevel)
	if err != nil {
		panic(err)
	}
	return l
}
