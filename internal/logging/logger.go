// Package logging builds the zap loggers used across claimrank.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ppiankov/claimrank/internal/model"
)

// New creates a logger writing to stderr
func New(cfg model.LogConfig) (*zap.Logger, error) {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter creates a logger writing to w
func NewWithWriter(cfg model.LogConfig, w io.Writer) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	format := strings.ToLower(cfg.Format)
	if format != "" && format != "json" && format != "console" {
		return nil, fmt.Errorf("invalid log format %q (want json or console)", cfg.Format)
	}

	core := zapcore.NewCore(newEncoder(format), zapcore.AddSync(w), level)
	return zap.New(core), nil
}

// Nop returns a logger that discards everything
func Nop() *zap.Logger {
	return zap.NewNop()
}

// ParseLevel parses a level name; empty means warn
func ParseLevel(name string) (zapcore.Level, error) {
	if name == "" {
		return zapcore.WarnLevel, nil
	}
	level, err := zapcore.ParseLevel(strings.ToLower(name))
	if err != nil {
		return zapcore.WarnLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

// newEncoder creates JSON or console encoder.
func newEncoder(format string) zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "console" {
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(encoderCfg)
	}
	return zapcore.NewJSONEncoder(encoderCfg)
}

// Sync flushes the logger, ignoring the harmless errors returned when
// syncing a terminal
func Sync(logger *zap.Logger) error {
	err := logger.Sync()
	if err != nil && isStdoutSyncError(err) {
		return nil
	}
	return err
}

func isStdoutSyncError(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EINVAL || errno == syscall.ENOTTY
	}
	return false
}
