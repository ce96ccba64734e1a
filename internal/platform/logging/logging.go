// Package logging builds the process logger.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/louisbranch/raidroster/internal/platform/config"
)

// Config selects the encoder and level. Keys are read with the RAIDROSTER_
// prefix.
type Config struct {
	Dev   bool   `env:"LOG_DEV" envDefault:"false"`
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// New builds a logger from the environment and tags it with service.
func New(service string) (*zap.Logger, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return nil, err
	}
	return NewWithConfig(service, cfg)
}

// NewWithConfig builds a JSON production logger, or a console logger when
// cfg.Dev is set.
func NewWithConfig(service string, cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Dev {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	if service != "" {
		logger = logger.With(zap.String("service", service))
	}
	return logger, nil
}
