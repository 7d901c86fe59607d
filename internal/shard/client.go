package shard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/shardmux/shardmux/internal/event"
	"github.com/shardmux/shardmux/internal/model"
)

// Client is the websocket-backed Conn implementation.
type Client struct {
	cfg    ClientConfig
	id     int
	total  int
	logger *slog.Logger
	mux    *event.Mux

	// Write serialization
	writeMu sync.Mutex

	// State
	mu                sync.RWMutex
	conn              *websocket.Conn
	connected         bool
	released          bool
	identity          *model.Identity
	sessionID         string
	lastSeq           int64
	heartbeatInterval time.Duration
	done              chan struct{}
}

// NewClient creates a shard client for index id out of total.
func NewClient(id, total int, cfg ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("shard_id", id)

	return &Client{
		cfg:    cfg,
		id:     id,
		total:  total,
		logger: logger,
		mux:    event.NewMux(logger),
	}
}

// ID returns the shard index.
func (c *Client) ID() int { return c.id }

// Events returns the shard's notification surface.
func (c *Client) Events() *event.Mux { return c.mux }

// Connected reports the current connection state.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Identity returns a copy of the shard's identity, nil if unresolved.
func (c *Client) Identity() *model.Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity.Clone()
}

// SetIdentity seeds the shard with identity resolved elsewhere.
func (c *Client) SetIdentity(id *model.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity = id.Clone()
}

// Connect dials the gateway and performs the hello/identify/ready handshake.
func (c *Client) Connect(ctx context.Context) (*model.Identity, error) {
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return nil, ErrReleased
	}
	if c.connected {
		c.mu.Unlock()
		return nil, ErrAlreadyConnected
	}
	seeded := c.identity
	c.mu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial gateway: %w", err)
	}

	deadline := time.Now().Add(c.cfg.HandshakeTimeout)
	conn.SetReadDeadline(deadline)

	hello, err := c.readHello(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := c.writeIdentify(conn); err != nil {
		conn.Close()
		return nil, err
	}

	ready, readyData, err := c.readReady(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	conn.SetReadDeadline(time.Time{})

	interval := time.Duration(hello.HeartbeatInterval) * time.Millisecond
	if interval <= 0 {
		interval = c.cfg.HeartbeatFallback
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.sessionID = ready.SessionID
	c.heartbeatInterval = interval
	c.done = make(chan struct{})
	if seeded == nil {
		c.identity = &model.Identity{
			Account:     ready.Account,
			Application: ready.Application,
			Regions:     ready.Regions,
		}
	}
	identity := c.identity.Clone()
	done := c.done
	c.mu.Unlock()

	go c.readLoop(conn, done)
	go c.heartbeatLoop(interval, done)

	now := time.Now()
	c.mux.Publish(event.Event{Kind: event.KindConnect, ShardID: c.id, ReceivedAt: now})
	c.mux.Publish(event.Event{Kind: event.KindReady, ShardID: c.id, Data: readyData, ReceivedAt: now})

	c.logger.Debug("shard connected",
		"session_id", ready.SessionID,
		"heartbeat_interval", interval,
	)

	return identity, nil
}

// readHello reads and validates the hello frame.
func (c *Client) readHello(conn *websocket.Conn) (*model.Hello, error) {
	var f frame
	if err := conn.ReadJSON(&f); err != nil {
		return nil, fmt.Errorf("read hello: %w", err)
	}
	if f.Op != opHello {
		return nil, fmt.Errorf("%w: expected hello, got op %d", ErrHandshake, f.Op)
	}

	var hello model.Hello
	if err := json.Unmarshal(f.Data, &hello); err != nil {
		return nil, fmt.Errorf("parse hello: %w", err)
	}
	return &hello, nil
}

// writeIdentify sends the identify frame.
func (c *Client) writeIdentify(conn *websocket.Conn) error {
	payload, err := json.Marshal(identifyPayload{
		Token:   c.cfg.Token,
		Shard:   [2]int{c.id, c.total},
		Intents: c.cfg.Intents,
		Nonce:   uuid.NewString(),
	})
	if err != nil {
		return fmt.Errorf("marshal identify: %w", err)
	}

	conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if err := conn.WriteJSON(frame{Op: opIdentify, Data: payload}); err != nil {
		return fmt.Errorf("write identify: %w", err)
	}
	return nil
}

// readReady reads and validates the ready dispatch frame.
func (c *Client) readReady(conn *websocket.Conn) (*model.Ready, json.RawMessage, error) {
	var f frame
	if err := conn.ReadJSON(&f); err != nil {
		return nil, nil, fmt.Errorf("read ready: %w", err)
	}
	if f.Op != opDispatch || event.Kind(f.Type) != event.KindReady {
		return nil, nil, fmt.Errorf("%w: expected ready, got op %d type %q", ErrHandshake, f.Op, f.Type)
	}

	var ready model.Ready
	if err := json.Unmarshal(f.Data, &ready); err != nil {
		return nil, nil, fmt.Errorf("parse ready: %w", err)
	}
	return &ready, f.Data, nil
}

// UpdatePresence sends a presence update on this connection.
func (c *Client) UpdatePresence(ctx context.Context, p model.Presence) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !c.Connected() {
		return ErrNotConnected
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal presence: %w", err)
	}
	return c.writeFrame(frame{Op: opPresence, Data: payload})
}

// Release tears the connection down. Idempotent; safe to call on a shard
// that never connected.
func (c *Client) Release() error {
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return nil
	}
	c.released = true
	c.connected = false
	conn := c.conn
	done := c.done
	c.mu.Unlock()

	if done != nil {
		close(done)
	}

	if conn != nil {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		return conn.Close()
	}

	return nil
}

// writeFrame serializes one frame onto the socket under the write lock.
func (c *Client) writeFrame(f frame) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return conn.WriteJSON(f)
}

// readLoop decodes inbound frames and publishes them on the shard's mux.
func (c *Client) readLoop(conn *websocket.Conn, done chan struct{}) {
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			c.mu.Lock()
			released := c.released
			c.connected = false
			c.mu.Unlock()

			if released {
				return
			}

			now := time.Now()
			c.logger.Warn("shard read error", "error", err)
			c.mux.Publish(event.Event{Kind: event.KindError, ShardID: c.id, Err: err, ReceivedAt: now})
			c.mux.Publish(event.Event{Kind: event.KindDisconnect, ShardID: c.id, ReceivedAt: now})
			return
		}

		select {
		case <-done:
			return
		default:
		}

		switch f.Op {
		case opDispatch:
			c.mu.Lock()
			c.lastSeq = f.Seq
			c.mu.Unlock()

			kind := event.Kind(f.Type)
			if !event.Known(kind) {
				c.logger.Debug("skipping unknown dispatch", "type", f.Type)
				continue
			}
			c.mux.Publish(event.Event{
				Kind:       kind,
				ShardID:    c.id,
				Data:       f.Data,
				ReceivedAt: time.Now(),
			})

		case opHeartbeatAck:
			c.mux.Publish(event.Event{Kind: event.KindHeartbeatAck, ShardID: c.id, ReceivedAt: time.Now()})

		default:
			c.logger.Debug("skipping frame", "op", f.Op)
		}
	}
}

// heartbeatLoop sends a heartbeat carrying the last seen sequence number.
func (c *Client) heartbeatLoop(interval time.Duration, done chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.mu.RLock()
			seq := c.lastSeq
			c.mu.RUnlock()

			payload, _ := json.Marshal(seq)
			if err := c.writeFrame(frame{Op: opHeartbeat, Data: payload}); err != nil {
				c.logger.Warn("heartbeat write failed", "error", err)
				return
			}
			c.mux.Publish(event.Event{Kind: event.KindHeartbeat, ShardID: c.id, ReceivedAt: time.Now()})
		}
	}
}
