// Package gateway provides the control-plane client for the real-time
// gateway.
//
// The single endpoint it speaks to returns connection metadata: the websocket
// endpoint URL, the recommended shard count, and the session-start limit
// bucket that caps how many shard handshakes may be in flight at once.
package gateway
