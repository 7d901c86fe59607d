// Package config loads and validates the shardmux YAML configuration.
package config

import "time"

// Config is the root configuration.
type Config struct {
	Gateway GatewayConfig `yaml:"gateway"`
	Shards  ShardsConfig  `yaml:"shards"`
	Log     LogConfig     `yaml:"log"`
}

// GatewayConfig holds control-plane settings.
type GatewayConfig struct {
	APIURL    string        `yaml:"api_url"`
	Token     string        `yaml:"token"` // supports ${VAR} expansion
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// ShardsConfig holds shard connection settings.
type ShardsConfig struct {
	// Count overrides the gateway's recommended shard count. Zero means
	// auto.
	Count             int           `yaml:"count"`
	Intents           int           `yaml:"intents"`
	HandshakeTimeout  time.Duration `yaml:"handshake_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	HeartbeatFallback time.Duration `yaml:"heartbeat_fallback"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
}
