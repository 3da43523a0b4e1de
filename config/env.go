package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// applyEnv overlays KUMA_* environment variables onto the loaded config,
// so deployments can run without a config file at all.
func applyEnv(c *Config) error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("failed to parse environment overrides: %w", err)
	}
	return nil
}
