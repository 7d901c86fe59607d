package cluster

import (
	"context"
	"errors"
	"fmt"

	"github.com/shardmux/shardmux/internal/event"
	"github.com/shardmux/shardmux/internal/gateway"
)

// Errors
var (
	// ErrAlreadyStarted is returned by Start when the cluster is not idle.
	ErrAlreadyStarted = errors.New("cluster: already started")

	// ErrNotStarted is returned by Stop when the cluster is idle.
	ErrNotStarted = errors.New("cluster: not started")

	// ErrStartInProgress is returned by Stop while a Start is in flight.
	// Callers abort a boot by cancelling the Start context.
	ErrStartInProgress = errors.New("cluster: start in progress")

	// ErrShardRegistered indicates a duplicate registry insertion. It is an
	// internal invariant violation, not a recoverable condition.
	ErrShardRegistered = errors.New("cluster: shard already registered")
)

// BootError wraps whichever resolver or connect failure aborted a boot.
// Rollback completes before it is returned.
type BootError struct {
	Err error
}

func (e *BootError) Error() string {
	return fmt.Sprintf("cluster: boot failed: %v", e.Err)
}

func (e *BootError) Unwrap() error {
	return e.Err
}

// InfoResolver resolves gateway connection metadata once per boot cycle.
type InfoResolver interface {
	Resolve(ctx context.Context) (*gateway.Info, error)
}

// Config configures a Cluster.
type Config struct {
	// ShardCount overrides the shard count. Zero means follow the
	// resolver's recommendation.
	ShardCount int
}

// lifecycleState is the single-flight start/stop gate.
type lifecycleState int

const (
	stateIdle lifecycleState = iota
	stateStarting
	stateRunning
)

// Stats provides statistics about the cluster.
type Stats struct {
	ShardCount int
	Connected  int
	Events     event.MuxStats
}
