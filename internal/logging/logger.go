// Package logging builds the zap logger shared by the dashboard and the CLI, plus
// a few helpers that keep fetch and pipeline log lines uniform across components.
package logging

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger at the given level ("debug", "info", "warn", "error").
// JSON output uses the production encoder; otherwise a console encoder is used.
func New(level string, json bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	if json {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}

// LogFetch logs a remote source request being made.
func LogFetch(log *zap.Logger, source, url string) {
	log.Debug("fetching source", zap.String("source", source), zap.String("url", url))
}

// LogFetched logs a completed source download.
func LogFetched(log *zap.Logger, source string, status, bytes int, duration time.Duration) {
	log.Info("fetched source",
		zap.String("source", source),
		zap.Int("status", status),
		zap.Int("bytes", bytes),
		zap.Int64("duration_ms", duration.Milliseconds()))
}

// LogPipeline logs a completed pipeline run.
func LogPipeline(log *zap.Logger, snapshotID string, circuits, matched int, duration time.Duration) {
	log.Debug("pipeline complete",
		zap.String("snapshot", snapshotID),
		zap.Int("circuits", circuits),
		zap.Int("matched", matched),
		zap.Int64("duration_ms", duration.Milliseconds()))
}

// LogError logs an error from an operation.
func LogError(log *zap.Logger, operation string, err error) {
	log.Error(operation+" failed", zap.Error(err))
}
