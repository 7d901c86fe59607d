package event

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Event is one notification, republished verbatim between muxes.
type Event struct {
	Kind       Kind
	ShardID    int             // index of the shard that produced it
	Data       json.RawMessage // raw payload, nil for local lifecycle kinds
	Err        error           // set for KindError only
	ReceivedAt time.Time
}

// Handler consumes one event. A returned error is logged and does not stop
// delivery to other handlers or of subsequent events.
type Handler func(Event) error

// Token identifies one subscription for later removal.
type Token uint64

// Mux is a per-kind publish/subscribe registry. Publish is synchronous:
// handlers run on the publishing goroutine, each inside its own failure
// domain (errors logged, panics recovered).
type Mux struct {
	logger *slog.Logger

	mu   sync.RWMutex
	next Token
	subs map[Kind]map[Token]Handler

	statsMu    sync.Mutex
	published  int64
	handlerErr int64
}

// NewMux creates an empty mux.
func NewMux(logger *slog.Logger) *Mux {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mux{
		logger: logger,
		subs:   make(map[Kind]map[Token]Handler),
	}
}

// Subscribe registers a handler for one kind and returns its token.
func (m *Mux) Subscribe(k Kind, h Handler) Token {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.next++
	t := m.next
	if m.subs[k] == nil {
		m.subs[k] = make(map[Token]Handler)
	}
	m.subs[k][t] = h
	return t
}

// Unsubscribe removes a subscription. Unknown tokens are a no-op, so
// unhooking twice is safe.
func (m *Mux) Unsubscribe(k Kind, t Token) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if handlers, ok := m.subs[k]; ok {
		delete(handlers, t)
		if len(handlers) == 0 {
			delete(m.subs, k)
		}
	}
}

// SubscriberCount returns the number of handlers registered for k.
func (m *Mux) SubscriberCount(k Kind) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs[k])
}

// Publish delivers e to every handler registered for its kind.
func (m *Mux) Publish(e Event) {
	m.mu.RLock()
	handlers := make([]Handler, 0, len(m.subs[e.Kind]))
	for _, h := range m.subs[e.Kind] {
		handlers = append(handlers, h)
	}
	m.mu.RUnlock()

	for _, h := range handlers {
		m.dispatch(e, h)
	}

	m.statsMu.Lock()
	m.published++
	m.statsMu.Unlock()
}

// dispatch runs one handler inside its own failure domain.
func (m *Mux) dispatch(e Event, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("event handler panic",
				"kind", e.Kind,
				"shard_id", e.ShardID,
				"panic", r,
			)
			m.statsMu.Lock()
			m.handlerErr++
			m.statsMu.Unlock()
		}
	}()

	if err := h(e); err != nil {
		m.logger.Warn("event handler error",
			"kind", e.Kind,
			"shard_id", e.ShardID,
			"error", err,
		)
		m.statsMu.Lock()
		m.handlerErr++
		m.statsMu.Unlock()
	}
}

// MuxStats contains counters since the mux was created.
type MuxStats struct {
	Published     int64
	HandlerErrors int64
}

// Stats returns current counters.
func (m *Mux) Stats() MuxStats {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return MuxStats{Published: m.published, HandlerErrors: m.handlerErr}
}
