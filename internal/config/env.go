package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

const envPrefix = "EDUASSIST_"

// parseEnv overlays EDUASSIST_* variables. Unset variables leave the current
// value alone.
func parseEnv(config *Config) error {
	if err := env.ParseWithOptions(config, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
