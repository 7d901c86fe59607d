package model

// -----------------------------------------------------------------------------
// Identity Types
// -----------------------------------------------------------------------------

// Account is the authenticated account as reported by the gateway.
type Account struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
	Bot      bool   `json:"bot,omitempty"`
}

// Application is the application the token belongs to.
type Application struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Flags int    `json:"flags,omitempty"`
}

// Region is one entry of the voice region catalog.
type Region struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Optimal    bool   `json:"optimal,omitempty"`
	Deprecated bool   `json:"deprecated,omitempty"`
}

// Identity bundles the shared values resolved during a shard handshake:
// the current account, the current application, and the region catalog.
// Exactly one shard per boot cycle resolves it; every other shard receives
// a copy.
type Identity struct {
	Account     Account     `json:"account"`
	Application Application `json:"application"`
	Regions     []Region    `json:"regions"`
}

// Clone returns a deep copy. The region slice is never shared between the
// orchestrator and a shard.
func (id *Identity) Clone() *Identity {
	if id == nil {
		return nil
	}
	cp := *id
	if id.Regions != nil {
		cp.Regions = make([]Region, len(id.Regions))
		copy(cp.Regions, id.Regions)
	}
	return &cp
}

// -----------------------------------------------------------------------------
// Presence Types
// -----------------------------------------------------------------------------

// Activity describes what the account is shown as doing.
type Activity struct {
	Name string `json:"name"`
	Type int    `json:"type"`
	URL  string `json:"url,omitempty"`
}

// Presence is a presence update sent to the gateway.
type Presence struct {
	// Status is one of "online", "idle", "dnd", "invisible".
	Status     string     `json:"status"`
	Activities []Activity `json:"activities,omitempty"`
	// Since is when the account went idle (Unix ms). Zero means not idle.
	Since int64 `json:"since,omitempty"`
	AFK   bool  `json:"afk,omitempty"`
}

// -----------------------------------------------------------------------------
// Handshake Payloads
// -----------------------------------------------------------------------------

// Ready is the payload of the gateway's handshake-complete frame.
type Ready struct {
	SessionID   string      `json:"session_id"`
	Account     Account     `json:"account"`
	Application Application `json:"application"`
	Regions     []Region    `json:"regions"`
}

// Hello is the payload of the gateway's first frame after the socket opens.
type Hello struct {
	HeartbeatInterval int64 `json:"heartbeat_interval"` // milliseconds
}
