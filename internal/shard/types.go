package shard

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shardmux/shardmux/internal/event"
	"github.com/shardmux/shardmux/internal/model"
)

// Errors
var (
	ErrNotConnected     = errors.New("shard: not connected")
	ErrAlreadyConnected = errors.New("shard: already connected")
	ErrReleased         = errors.New("shard: released")
	ErrHandshake        = errors.New("shard: handshake failed")
)

// Conn is a single gateway connection as the cluster sees it.
type Conn interface {
	// ID returns the shard index.
	ID() int

	// Connect performs the handshake and starts the read and heartbeat
	// loops. It suspends until the handshake completes and returns the
	// identity resolved (or previously seeded).
	Connect(ctx context.Context) (*model.Identity, error)

	// UpdatePresence sends a presence update on this connection.
	UpdatePresence(ctx context.Context, p model.Presence) error

	// Release tears the connection down. Idempotent.
	Release() error

	// Connected reports the current connection state.
	Connected() bool

	// Identity returns a copy of the shard's identity, nil if unresolved.
	Identity() *model.Identity

	// SetIdentity seeds the shard with identity resolved elsewhere, so it
	// does not re-resolve it during its own handshake.
	SetIdentity(*model.Identity)

	// Events returns the shard's notification surface.
	Events() *event.Mux
}

// Factory creates the shard for one index out of a total count. The url is
// the websocket endpoint from the resolved gateway metadata.
type Factory func(id, total int, url string) Conn

// Gateway opcodes.
const (
	opDispatch     = 0
	opHeartbeat    = 1
	opIdentify     = 2
	opPresence     = 3
	opHello        = 10
	opHeartbeatAck = 11
)

// frame is the gateway wire envelope.
type frame struct {
	Op   int             `json:"op"`
	Type string          `json:"t,omitempty"`
	Seq  int64           `json:"s,omitempty"`
	Data json.RawMessage `json:"d,omitempty"`
}

// identifyPayload is the payload of the identify frame.
type identifyPayload struct {
	Token   string `json:"token"`
	Shard   [2]int `json:"shard"` // [index, total]
	Intents int    `json:"intents"`
	Nonce   string `json:"nonce"`
}

// ClientConfig configures a websocket-backed shard.
type ClientConfig struct {
	URL               string        // websocket endpoint from gateway metadata
	Token             string        // auth token, sent in the identify payload
	Intents           int           // event subscription bitmask
	HandshakeTimeout  time.Duration // covers dial, hello, identify, ready
	WriteTimeout      time.Duration // write deadline for sends
	HeartbeatFallback time.Duration // used if hello omits an interval
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout:  30 * time.Second,
		WriteTimeout:      5 * time.Second,
		HeartbeatFallback: 41250 * time.Millisecond,
	}
}
