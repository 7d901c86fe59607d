package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultAPIURL            = "https://gateway.shardmux.dev"
	DefaultUserAgent         = "shardmux (https://github.com/shardmux/shardmux)"
	DefaultAPITimeout        = 30 * time.Second
	DefaultHandshakeTimeout  = 30 * time.Second
	DefaultWriteTimeout      = 5 * time.Second
	DefaultHeartbeatFallback = 41250 * time.Millisecond
	DefaultLogLevel          = "info"
)

func (c *Config) applyDefaults() {
	if c.Gateway.APIURL == "" {
		c.Gateway.APIURL = DefaultAPIURL
	}
	if c.Gateway.UserAgent == "" {
		c.Gateway.UserAgent = DefaultUserAgent
	}
	if c.Gateway.Timeout == 0 {
		c.Gateway.Timeout = DefaultAPITimeout
	}

	if c.Shards.HandshakeTimeout == 0 {
		c.Shards.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Shards.WriteTimeout == 0 {
		c.Shards.WriteTimeout = DefaultWriteTimeout
	}
	if c.Shards.HeartbeatFallback == 0 {
		c.Shards.HeartbeatFallback = DefaultHeartbeatFallback
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}
