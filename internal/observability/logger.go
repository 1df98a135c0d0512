// Package observability holds the process-wide loggers.
package observability

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CLILogger is the logger used by commands and the HTTP server.
// It writes to stderr so stdout stays reserved for records.
var CLILogger = zap.NewNop()

// InitCLILogger replaces CLILogger with a console logger named after the
// binary. verbose enables debug level.
func InitCLILogger(name string, verbose bool) {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	CLILogger = NewLogger(name, level, "console")
}

// InitServerLogger replaces CLILogger with a logger for long-running
// processes. levelName is a zap level ("debug", "info", ...); profile
// "structured" selects JSON output, anything else the console encoder.
func InitServerLogger(name, levelName, profile string) {
	CLILogger = NewLogger(name, ParseLevel(levelName), profile)
}

// NewLogger builds a zap logger writing to stderr.
func NewLogger(name string, level zapcore.Level, profile string) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if strings.EqualFold(profile, "structured") || strings.EqualFold(profile, "json") {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), zap.NewAtomicLevelAt(level))
	return zap.New(core).Named(name)
}

// ParseLevel maps a level name to a zap level, defaulting to info.
func ParseLevel(name string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(name)))); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// Sync flushes CLILogger. Errors from syncing stderr are ignored.
func Sync() {
	_ = CLILogger.Sync()
}
