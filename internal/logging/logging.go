// Package logging builds the zap logger used as the observability sink.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"taskflow/internal/config"
)

// New builds a logger that writes JSON lines to the log file in the config
// directory and, when cfg.Debug is set, human-readable lines to errOut.
// If the log file cannot be opened the file core is dropped; the returned
// close function is always safe to call.
func New(cfg *config.Config, errOut io.Writer) (*zap.Logger, func(), error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	var cores []zapcore.Core
	closeFn := func() {}

	if err := cfg.EnsureDir(); err == nil {
		f, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err == nil {
			cores = append(cores, zapcore.NewCore(newEncoder("json"), zapcore.AddSync(f), level))
			closeFn = func() { _ = f.Close() }
		}
	}

	if cfg.Debug && errOut != nil {
		cores = append(cores, zapcore.NewCore(newEncoder("console"), zapcore.AddSync(errOut), zapcore.DebugLevel))
	}

	if len(cores) == 0 {
		return zap.NewNop(), closeFn, nil
	}

	logger := zap.New(zapcore.NewTee(cores...)).With(zap.String("app", config.AppName))
	return logger, func() {
		_ = logger.Sync()
		closeFn()
	}, nil
}

// newEncoder creates JSON or console encoder.
func newEncoder(format string) zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "console" {
		return zapcore.NewConsoleEncoder(encoderCfg)
	}
	return zapcore.NewJSONEncoder(encoderCfg)
}
