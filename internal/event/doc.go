// Package event implements the notification surface shared by shards and
// the cluster.
//
// Every shard owns a Mux; the cluster owns one more. The cluster attaches a
// forwarding subscriber per event kind to each shard's mux and republishes
// everything on its own, so callers observe one unified stream regardless of
// how many shards are running.
package event
