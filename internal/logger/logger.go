// Package logger builds the process-wide zap logger. Every entry carries
// the service identity so logs from several deployments of the financial
// backend can be told apart in one aggregation stream.
package logger

import (
	"fmt"

	"github.com/finovia/adfin/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a JSON zap.Logger at the configured level and replaces the
// globals. Unknown levels are rejected rather than silently downgraded;
// a typo in LOG_LEVEL should fail startup, not hide debug output.
func New(cfg config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "json"
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level := cfg.LogLevel
	if level == "" {
		level = "info"
	}
	if err := zcfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	if cfg.Environment == "development" {
		zcfg.Development = true
		zcfg.Sampling = nil
	}

	logger, err := zcfg.Build(zap.Fields(
		zap.String("service", cfg.AppName),
		zap.String("version", cfg.AppVersion),
		zap.String("env", cfg.Environment),
	))
	if err != nil {
		return nil, err
	}

	zap.ReplaceGlobals(logger)
	return logger, nil
}
