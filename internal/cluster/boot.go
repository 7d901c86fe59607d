package cluster

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/shardmux/shardmux/internal/model"
)

// boot resolves gateway metadata, registers every shard, and connects them
// in strictly sequential batches sized to the session-start concurrency
// limit. Booting with shards already registered is a no-op.
func (c *Cluster) boot(ctx context.Context) error {
	if c.registry.Len() > 0 {
		return nil
	}

	info, err := c.resolver.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("resolve gateway info: %w", err)
	}

	count := c.cfg.ShardCount
	if count <= 0 {
		count = info.Shards
	}
	if count <= 0 {
		return fmt.Errorf("invalid shard count %d", count)
	}

	bootID := uuid.NewString()
	c.infoMu.Lock()
	c.info = info
	c.bootID = bootID
	c.infoMu.Unlock()

	c.logger.Info("booting shards",
		"boot_id", bootID,
		"shard_count", count,
		"max_concurrency", info.SessionStartLimit.MaxConcurrency,
		"sessions_remaining", info.SessionStartLimit.Remaining,
	)

	for i := 0; i < count; i++ {
		if err := c.registry.Register(i, c.factory(i, count, info.URL)); err != nil {
			return err
		}
	}

	m := info.SessionStartLimit.MaxConcurrency
	if m < 1 {
		m = 1
	}

	for lo := 0; lo < count; lo += m {
		hi := lo + m
		if hi > count {
			hi = count
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := lo; i < hi; i++ {
			i := i
			g.Go(func() error {
				return c.connectShard(gctx, i)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		c.logger.Debug("shard batch connected", "from", lo, "to", hi-1)
	}

	return nil
}

// connectShard wires one shard into the cluster and connects it. Seeding,
// event hooking, and identity capture all complete before the shard counts
// toward its batch.
func (c *Cluster) connectShard(ctx context.Context, id int) error {
	conn, ok := c.registry.Get(id)
	if !ok {
		return fmt.Errorf("shard %d not registered", id)
	}

	// Seed identity resolved by an earlier shard before connecting, so this
	// shard does not re-resolve it.
	if ident := c.identity.Load(); ident != nil && conn.Identity() == nil {
		conn.SetIdentity(ident)
	}

	c.hookShard(conn)

	ident, err := conn.Connect(ctx)
	if err != nil {
		c.unhookShard(conn)
		return fmt.Errorf("connect shard %d: %w", id, err)
	}

	c.captureIdentity(ident)
	return nil
}

// captureIdentity installs the first resolved identity as the cluster's
// shared state and backfills it into every shard that still lacks one.
func (c *Cluster) captureIdentity(ident *model.Identity) {
	if ident == nil {
		return
	}
	if !c.identity.CompareAndSwap(nil, ident.Clone()) {
		return
	}

	for _, e := range c.registry.Snapshot() {
		if e.Conn.Identity() == nil {
			e.Conn.SetIdentity(ident)
		}
	}

	c.logger.Debug("shared identity captured",
		"account_id", ident.Account.ID,
		"application_id", ident.Application.ID,
		"regions", len(ident.Regions),
	)
}

// teardown unhooks and releases every shard in ascending index order and
// clears all shared state. Release failures are collected for logging only;
// one bad connection never blocks releasing the others.
func (c *Cluster) teardown() {
	var errs error
	for _, e := range c.registry.Snapshot() {
		c.unhookShard(e.Conn)
		if err := e.Conn.Release(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("release shard %d: %w", e.ID, err))
		}
	}
	if errs != nil {
		c.logger.Warn("shard teardown errors", "error", errs)
	}

	c.registry.Clear()
	c.identity.Store(nil)

	c.infoMu.Lock()
	c.info = nil
	c.bootID = ""
	c.infoMu.Unlock()
}
