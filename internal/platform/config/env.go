// Package config loads process configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Prefix is prepended to every environment key read by ParseEnv.
const Prefix = "RAIDROSTER_"

// ParseEnv fills target from RAIDROSTER_-prefixed environment variables.
// Struct tags name the key without the prefix.
func ParseEnv(target any) error {
	return parse(target, nil)
}

// ParseEnvMap is ParseEnv reading from values instead of the process
// environment. Keys in values carry the prefix.
func ParseEnvMap(target any, values map[string]string) error {
	if values == nil {
		values = map[string]string{}
	}
	return parse(target, values)
}

func parse(target any, values map[string]string) error {
	opts := env.Options{Prefix: Prefix}
	if values != nil {
		opts.Environment = values
	}
	if err := env.ParseWithOptions(target, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
