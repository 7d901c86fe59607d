package cluster

import (
	"github.com/shardmux/shardmux/internal/event"
	"github.com/shardmux/shardmux/internal/shard"
)

// hookShard attaches one forwarding subscriber per event kind to the
// shard's mux. Hooking an already hooked shard is a no-op, so repeated
// hook/unhook cycles never double-subscribe.
func (c *Cluster) hookShard(conn shard.Conn) {
	c.hooksMu.Lock()
	defer c.hooksMu.Unlock()

	if _, ok := c.hooks[conn.ID()]; ok {
		return
	}

	tokens := make(map[event.Kind]event.Token, len(event.Kinds()))
	for _, k := range event.Kinds() {
		tokens[k] = conn.Events().Subscribe(k, c.forward)
	}
	c.hooks[conn.ID()] = tokens
}

// unhookShard detaches every forwarder attached by hookShard.
func (c *Cluster) unhookShard(conn shard.Conn) {
	c.hooksMu.Lock()
	defer c.hooksMu.Unlock()

	tokens, ok := c.hooks[conn.ID()]
	if !ok {
		return
	}
	for k, t := range tokens {
		conn.Events().Unsubscribe(k, t)
	}
	delete(c.hooks, conn.ID())
}

// forward republishes a per-shard event verbatim on the unified surface.
func (c *Cluster) forward(e event.Event) error {
	c.mux.Publish(e)
	return nil
}
