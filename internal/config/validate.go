package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Gateway.Token == "" {
		return errors.New("gateway.token is required")
	}
	if c.Gateway.APIURL == "" {
		return errors.New("gateway.api_url is required")
	}

	if c.Shards.Count < 0 {
		return fmt.Errorf("shards.count must be >= 0 (0 = auto), got %d", c.Shards.Count)
	}
	if c.Shards.Intents < 0 {
		return fmt.Errorf("shards.intents must be >= 0, got %d", c.Shards.Intents)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}

	return nil
}
