// Package logging builds the zap logger shared across the buffer pool,
// adapted from the teacher pack's sushant-115-gojodb/pkg/logger/logger.go
// (Config{Level,Format,OutputFile} -> *zap.Logger).
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls how the shared logger is constructed.
type Config struct {
	// Level is one of "debug", "info", "warn", "error". Empty defaults
	// to "info".
	Level string
	// JSON selects structured JSON output; false uses zap's
	// human-readable console encoder, which is what the demo CLI uses.
	JSON bool
}

// New builds a *zap.Logger from cfg. Unlike the teacher's version this
// never writes to a file directly (the demo CLI has no log-rotation
// requirement); output always goes to stderr.
func New(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(levelOrDefault(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("logging: parse level %q: %w", cfg.Level, err)
	}

	var encoderCfg zapcore.EncoderConfig
	var encoder zapcore.Encoder
	if cfg.JSON {
		encoderCfg = zap.NewProductionEncoderConfig()
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(os.Stderr)), level)
	return zap.New(core), nil
}

func levelOrDefault(level string) string {
	if level == "" {
		return "info"
	}
	return level
}
