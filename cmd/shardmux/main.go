package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shardmux/shardmux/internal/cluster"
	"github.com/shardmux/shardmux/internal/config"
	"github.com/shardmux/shardmux/internal/event"
	"github.com/shardmux/shardmux/internal/gateway"
	"github.com/shardmux/shardmux/internal/shard"
	"github.com/shardmux/shardmux/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/shardmux.yaml", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	logger.Info("starting shardmux",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Gateway control-plane client
	resolver := gateway.NewResolver(
		cfg.Gateway.APIURL,
		cfg.Gateway.Token,
		gateway.WithLogger(logger),
		gateway.WithTimeout(cfg.Gateway.Timeout),
		gateway.WithUserAgent(cfg.Gateway.UserAgent),
	)

	// Shard factory
	clientCfg := shard.ClientConfig{
		Token:             cfg.Gateway.Token,
		Intents:           cfg.Shards.Intents,
		HandshakeTimeout:  cfg.Shards.HandshakeTimeout,
		WriteTimeout:      cfg.Shards.WriteTimeout,
		HeartbeatFallback: cfg.Shards.HeartbeatFallback,
	}
	factory := func(id, total int, url string) shard.Conn {
		cc := clientCfg
		cc.URL = url
		return shard.NewClient(id, total, cc, logger)
	}

	// Orchestrator
	c := cluster.New(
		cluster.Config{ShardCount: cfg.Shards.Count},
		resolver,
		factory,
		logger,
	)

	c.On(event.KindError, func(e event.Event) error {
		logger.Warn("shard error", "shard_id", e.ShardID, "error", e.Err)
		return nil
	})
	c.On(event.KindDisconnect, func(e event.Event) error {
		logger.Warn("shard disconnected", "shard_id", e.ShardID)
		return nil
	})

	if err := c.Start(ctx); err != nil {
		logger.Error("failed to start cluster", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := c.Stop(); err != nil {
			logger.Warn("stop failed", "error", err)
		}
	}()

	if acct, ok := c.Account(); ok {
		logger.Info("cluster ready",
			"account_id", acct.ID,
			"username", acct.Username,
			"shard_count", c.ShardCount(),
			"regions", len(c.Regions()),
		)
	}

	<-ctx.Done()
	logger.Info("shutting down")
}

// logLevel maps a config level string to a slog level.
func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
