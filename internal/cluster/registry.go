package cluster

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shardmux/shardmux/internal/shard"
)

// Entry pairs a shard index with its connection.
type Entry struct {
	ID   int
	Conn shard.Conn
}

// Registry owns the set of shard connections, keyed by index. Insertion
// happens at most once per index; reads are safe from any goroutine.
type Registry struct {
	mu    sync.RWMutex
	conns map[int]shard.Conn
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[int]shard.Conn),
	}
}

// Register inserts a connection under its index. A collision is a boot
// sequencing defect and fails with ErrShardRegistered.
func (r *Registry) Register(id int, conn shard.Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[id]; ok {
		return fmt.Errorf("%w: index %d", ErrShardRegistered, id)
	}
	r.conns[id] = conn
	return nil
}

// Get returns the connection registered under id.
func (r *Registry) Get(id int) (shard.Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[id]
	return conn, ok
}

// Len returns the number of registered shards.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Snapshot returns all entries in ascending index order. The slice is a
// copy; callers may iterate it without holding any lock.
func (r *Registry) Snapshot() []Entry {
	r.mu.RLock()
	entries := make([]Entry, 0, len(r.conns))
	for id, conn := range r.conns {
		entries = append(entries, Entry{ID: id, Conn: conn})
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

// Clear removes every entry.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns = make(map[int]shard.Conn)
}
