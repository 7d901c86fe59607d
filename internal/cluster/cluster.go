package cluster

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/shardmux/shardmux/internal/event"
	"github.com/shardmux/shardmux/internal/gateway"
	"github.com/shardmux/shardmux/internal/model"
	"github.com/shardmux/shardmux/internal/shard"
)

// Cluster is the shard orchestrator.
type Cluster struct {
	cfg      Config
	resolver InfoResolver
	factory  shard.Factory
	logger   *slog.Logger

	// Unified notification surface
	mux *event.Mux

	registry *Registry

	// Lifecycle gate; held across Stop's teardown so a Start cannot
	// interleave with it
	stateMu sync.Mutex
	state   lifecycleState

	// Gateway metadata for the current boot cycle
	infoMu sync.RWMutex
	info   *gateway.Info
	bootID string

	// Shared identity, set exactly once per boot cycle
	identity atomic.Pointer[model.Identity]

	// Per-shard forwarder tokens
	hooksMu sync.Mutex
	hooks   map[int]map[event.Kind]event.Token
}

// New creates a cluster. The factory is invoked once per shard index during
// boot; the resolver is consulted exactly once per boot cycle.
func New(cfg Config, resolver InfoResolver, factory shard.Factory, logger *slog.Logger) *Cluster {
	if logger == nil {
		logger = slog.Default()
	}

	return &Cluster{
		cfg:      cfg,
		resolver: resolver,
		factory:  factory,
		logger:   logger,
		mux:      event.NewMux(logger),
		registry: NewRegistry(),
		hooks:    make(map[int]map[event.Kind]event.Token),
	}
}

// Start boots every shard. It fails with ErrAlreadyStarted if the cluster is
// not idle. On any boot failure it rolls back completely before returning a
// BootError carrying the cause.
func (c *Cluster) Start(ctx context.Context) error {
	c.stateMu.Lock()
	if c.state != stateIdle {
		c.stateMu.Unlock()
		return ErrAlreadyStarted
	}
	c.state = stateStarting
	c.stateMu.Unlock()

	if err := c.boot(ctx); err != nil {
		c.logger.Error("boot failed, rolling back", "error", err)
		c.teardown()

		c.stateMu.Lock()
		c.state = stateIdle
		c.stateMu.Unlock()

		return &BootError{Err: err}
	}

	c.stateMu.Lock()
	c.state = stateRunning
	c.stateMu.Unlock()

	c.logger.Info("cluster started", "shard_count", c.registry.Len())
	return nil
}

// Stop releases every shard in ascending index order and clears all shared
// state. Individual teardown failures are logged, never surfaced. It fails
// with ErrNotStarted when idle and ErrStartInProgress while a Start is in
// flight.
func (c *Cluster) Stop() error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	switch c.state {
	case stateIdle:
		return ErrNotStarted
	case stateStarting:
		return ErrStartInProgress
	}

	c.logger.Info("stopping cluster", "shard_count", c.registry.Len())
	c.teardown()
	c.state = stateIdle
	return nil
}

// On subscribes a handler to one event kind on the unified surface.
func (c *Cluster) On(k event.Kind, h event.Handler) event.Token {
	return c.mux.Subscribe(k, h)
}

// Off removes a subscription made with On.
func (c *Cluster) Off(k event.Kind, t event.Token) {
	c.mux.Unsubscribe(k, t)
}

// Events returns the unified notification surface.
func (c *Cluster) Events() *event.Mux {
	return c.mux
}

// ShardCount returns the number of registered shards.
func (c *Cluster) ShardCount() int {
	return c.registry.Len()
}

// Shard returns the connection registered under id.
func (c *Cluster) Shard(id int) (shard.Conn, bool) {
	return c.registry.Get(id)
}

// ShardForKey returns the shard covering key. The mapping is stable for a
// fixed shard count and independent of registration order.
func (c *Cluster) ShardForKey(key string) (shard.Conn, bool) {
	n := c.registry.Len()
	if n == 0 {
		return nil, false
	}

	h := fnv.New32a()
	h.Write([]byte(key))
	return c.registry.Get(int(h.Sum32() % uint32(n)))
}

// BroadcastPresence sends a presence update on every shard concurrently and
// waits for all of them. Every shard is issued the update; the first
// observed failure is returned.
func (c *Cluster) BroadcastPresence(ctx context.Context, p model.Presence) error {
	entries := c.registry.Snapshot()
	if len(entries) == 0 {
		return ErrNotStarted
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, e := range entries {
		e := e
		g.Go(func() error {
			if err := e.Conn.UpdatePresence(gctx, p); err != nil {
				return fmt.Errorf("shard %d: %w", e.ID, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Info returns the gateway metadata for the current boot cycle, nil when
// idle. The returned snapshot is a copy.
func (c *Cluster) Info() *gateway.Info {
	c.infoMu.RLock()
	defer c.infoMu.RUnlock()
	if c.info == nil {
		return nil
	}
	cp := *c.info
	return &cp
}

// Identity returns a copy of the shared identity, nil if not yet resolved.
func (c *Cluster) Identity() *model.Identity {
	return c.identity.Load().Clone()
}

// Account returns the current account identity.
func (c *Cluster) Account() (model.Account, bool) {
	if id := c.identity.Load(); id != nil {
		return id.Account, true
	}
	return model.Account{}, false
}

// Application returns the current application identity.
func (c *Cluster) Application() (model.Application, bool) {
	if id := c.identity.Load(); id != nil {
		return id.Application, true
	}
	return model.Application{}, false
}

// Regions returns a copy of the region catalog, nil if not yet resolved.
func (c *Cluster) Regions() []model.Region {
	id := c.identity.Load()
	if id == nil || id.Regions == nil {
		return nil
	}
	out := make([]model.Region, len(id.Regions))
	copy(out, id.Regions)
	return out
}

// Stats returns current statistics.
func (c *Cluster) Stats() Stats {
	connected := 0
	entries := c.registry.Snapshot()
	for _, e := range entries {
		if e.Conn.Connected() {
			connected++
		}
	}
	return Stats{
		ShardCount: len(entries),
		Connected:  connected,
		Events:     c.mux.Stats(),
	}
}
