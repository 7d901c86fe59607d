package gateway

import (
	"fmt"
	"time"
)

// SessionStartLimit is the server-imposed bucket for shard handshakes.
type SessionStartLimit struct {
	Total          int           // total session starts per window
	Remaining      int           // starts left in the current window
	ResetAfter     time.Duration // until the window resets, request-latency corrected
	ResetAt        time.Time     // absolute reset time
	MaxConcurrency int           // handshakes allowed in flight at once, always >= 1
}

// Info is an immutable snapshot of gateway connection metadata. It is
// fetched once per boot cycle and discarded on stop.
type Info struct {
	URL               string // websocket endpoint
	Shards            int    // recommended shard count
	SessionStartLimit SessionStartLimit
}

// APIError represents a non-2xx response from the control plane.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway api error %d: %s", e.StatusCode, e.Message)
}

// IsAuth returns true if the error indicates invalid credentials.
func (e *APIError) IsAuth() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// IsServer returns true for server-side failures.
func (e *APIError) IsServer() bool {
	return e.StatusCode >= 500
}

// infoResponse is the wire format of the metadata endpoint.
type infoResponse struct {
	URL               string `json:"url"`
	Shards            int    `json:"shards"`
	SessionStartLimit struct {
		Total          int   `json:"total"`
		Remaining      int   `json:"remaining"`
		ResetAfter     int64 `json:"reset_after"` // milliseconds
		MaxConcurrency int   `json:"max_concurrency"`
	} `json:"session_start_limit"`
}

// newInfo converts a wire response into a snapshot. latency is the
// wall-clock round-trip time of the request; it is subtracted from the
// reported reset window so ResetAt reflects the server's intended reset
// time, not the moment decoding finished. MaxConcurrency below 1 is
// clamped up.
func newInfo(wire infoResponse, latency time.Duration, now time.Time) *Info {
	resetAfter := time.Duration(wire.SessionStartLimit.ResetAfter)*time.Millisecond - latency
	if resetAfter < 0 {
		resetAfter = 0
	}

	maxConcurrency := wire.SessionStartLimit.MaxConcurrency
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	return &Info{
		URL:    wire.URL,
		Shards: wire.Shards,
		SessionStartLimit: SessionStartLimit{
			Total:          wire.SessionStartLimit.Total,
			Remaining:      wire.SessionStartLimit.Remaining,
			ResetAfter:     resetAfter,
			ResetAt:        now.Add(resetAfter),
			MaxConcurrency: maxConcurrency,
		},
	}
}
