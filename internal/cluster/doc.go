// Package cluster implements the shard orchestrator.
//
// A Cluster presents many independent gateway connections as one logical
// client: it resolves how many shards are needed, connects them in batches
// sized to the server's session-start concurrency limit, consolidates the
// identity state resolved by whichever shard reports it first, and
// republishes every shard's events on a single unified surface.
//
// Start either completes fully or rolls back completely; no partial state is
// observable after a failed boot.
package cluster
