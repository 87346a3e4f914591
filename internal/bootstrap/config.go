// Package bootstrap loads configuration and wires the pipeline's
// components together.
package bootstrap

import (
	"fmt"

	"github.com/Mohammedmarzuk17/EduShield/infrastructure/logger"
	"github.com/Mohammedmarzuk17/EduShield/internal/config"
)

// ServiceName tags every log entry.
const ServiceName = "edushield-blocklist"

// LoadConfig loads and validates the configuration at path. debug forces
// debug logging.
func LoadConfig(path string, debug bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if debug {
		cfg.Debug = true
		cfg.Logging.Level = "debug"
		cfg.Logging.Development = true
	}

	return cfg, nil
}

// CreateLogger creates a logger instance from configuration.
func CreateLogger(cfg *config.Config, version string) (logger.Logger, error) {
	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(
		logger.String("service", ServiceName),
		logger.String("version", version),
	), nil
}
