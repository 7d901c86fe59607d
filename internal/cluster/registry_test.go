package cluster

import (
	"errors"
	"testing"
)

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(0, newFakeConn(0)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(1, newFakeConn(1)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := r.Register(0, newFakeConn(0)); !errors.Is(err, ErrShardRegistered) {
		t.Errorf("duplicate Register = %v, want ErrShardRegistered", err)
	}

	if n := r.Len(); n != 2 {
		t.Errorf("Len = %d, want 2", n)
	}

	if _, ok := r.Get(1); !ok {
		t.Error("Get(1) not found")
	}
	if _, ok := r.Get(5); ok {
		t.Error("Get(5) found unregistered shard")
	}
}

func TestRegistry_SnapshotOrder(t *testing.T) {
	r := NewRegistry()

	// Register out of order; snapshot must come back ascending
	for _, id := range []int{3, 0, 4, 1, 2} {
		if err := r.Register(id, newFakeConn(id)); err != nil {
			t.Fatalf("Register(%d) failed: %v", id, err)
		}
	}

	entries := r.Snapshot()
	if len(entries) != 5 {
		t.Fatalf("Snapshot has %d entries, want 5", len(entries))
	}
	for i, e := range entries {
		if e.ID != i {
			t.Errorf("entry %d has ID %d, want %d", i, e.ID, i)
		}
		if e.Conn.ID() != i {
			t.Errorf("entry %d conn ID = %d, want %d", i, e.Conn.ID(), i)
		}
	}
}

func TestRegistry_Clear(t *testing.T) {
	r := NewRegistry()
	r.Register(0, newFakeConn(0))
	r.Clear()

	if n := r.Len(); n != 0 {
		t.Errorf("Len after Clear = %d, want 0", n)
	}

	// Re-registering the same index after Clear is allowed
	if err := r.Register(0, newFakeConn(0)); err != nil {
		t.Errorf("Register after Clear failed: %v", err)
	}
}
