// ABOUTME: zap logger construction for the binaries
// ABOUTME: Logs to a file, and also to stdout when no TUI owns the terminal
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the log sinks
type Options struct {
	// File is appended to when set
	File string

	// Console also writes human-readable logs to Stdout
	Console bool

	// Debug enables debug level
	Debug bool

	// Stdout defaults to os.Stdout
	Stdout io.Writer
}

// New builds a logger. The returned close function flushes and closes the
// log file.
func New(opts Options) (*zap.Logger, func() error, error) {
	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}

	var cores []zapcore.Core
	closeFile := func() error { return nil }

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
		if err != nil {
			return nil, nil, fmt.Errorf("error opening log file: %w", err)
		}
		closeFile = f.Close

		enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(f), level))
	}

	if opts.Console {
		out := opts.Stdout
		if out == nil {
			out = os.Stdout
		}
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(out), level))
	}

	if len(cores) == 0 {
		return zap.NewNop(), closeFile, nil
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	closer := func() error {
		_ = logger.Sync()
		return closeFile()
	}
	return logger, closer, nil
}
