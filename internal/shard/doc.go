// Package shard implements a single persistent gateway connection.
//
// Each shard covers a deterministic slice of the key space, identified by
// its index out of a total count. The handshake (hello, identify, ready)
// resolves the shared identity values; afterwards a read loop decodes
// dispatch frames and publishes them on the shard's event mux, and a
// heartbeat loop keeps the session alive.
package shard
