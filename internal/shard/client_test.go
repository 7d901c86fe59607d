package shard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shardmux/shardmux/internal/event"
	"github.com/shardmux/shardmux/internal/model"
)

// mockGateway creates a test gateway server.
func mockGateway(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))

	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// handshake drives the server side of hello/identify/ready and returns the
// received identify payload.
func handshake(t *testing.T, conn *websocket.Conn, heartbeatMs int64) identifyPayload {
	hello, _ := json.Marshal(model.Hello{HeartbeatInterval: heartbeatMs})
	if err := conn.WriteJSON(frame{Op: opHello, Data: hello}); err != nil {
		t.Logf("write hello: %v", err)
	}

	var f frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Logf("read identify: %v", err)
		return identifyPayload{}
	}
	var ident identifyPayload
	json.Unmarshal(f.Data, &ident)

	ready, _ := json.Marshal(model.Ready{
		SessionID:   "session-1",
		Account:     model.Account{ID: "100", Username: "muxbot", Bot: true},
		Application: model.Application{ID: "200", Name: "muxapp"},
		Regions: []model.Region{
			{ID: "us-east", Name: "US East", Optimal: true},
		},
	})
	conn.WriteJSON(frame{Op: opDispatch, Type: string(event.KindReady), Data: ready})

	return ident
}

func testClientConfig(url string) ClientConfig {
	cfg := DefaultClientConfig()
	cfg.URL = url
	cfg.Token = "test-token"
	cfg.HandshakeTimeout = 5 * time.Second
	return cfg
}

func TestClient_Connect(t *testing.T) {
	identCh := make(chan identifyPayload, 1)
	server := mockGateway(t, func(conn *websocket.Conn) {
		identCh <- handshake(t, conn, 45000)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	c := NewClient(2, 4, testClientConfig(wsURL(server)), nil)

	var kinds []event.Kind
	for _, k := range []event.Kind{event.KindConnect, event.KindReady} {
		c.Events().Subscribe(k, func(e event.Event) error {
			kinds = append(kinds, e.Kind)
			return nil
		})
	}

	identity, err := c.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer c.Release()

	if !c.Connected() {
		t.Error("expected Connected to return true")
	}
	if identity.Account.ID != "100" {
		t.Errorf("Account.ID = %q, want %q", identity.Account.ID, "100")
	}
	if identity.Application.ID != "200" {
		t.Errorf("Application.ID = %q, want %q", identity.Application.ID, "200")
	}
	if len(identity.Regions) != 1 {
		t.Errorf("Regions = %d entries, want 1", len(identity.Regions))
	}

	sent := <-identCh
	if sent.Token != "test-token" {
		t.Errorf("identify token = %q, want %q", sent.Token, "test-token")
	}
	if sent.Shard != [2]int{2, 4} {
		t.Errorf("identify shard = %v, want [2 4]", sent.Shard)
	}
	if sent.Nonce == "" {
		t.Error("identify nonce not set")
	}

	if len(kinds) != 2 || kinds[0] != event.KindConnect || kinds[1] != event.KindReady {
		t.Errorf("published kinds = %v, want [connect, ready]", kinds)
	}
}

func TestClient_SeededIdentitySkipsResolve(t *testing.T) {
	server := mockGateway(t, func(conn *websocket.Conn) {
		handshake(t, conn, 45000)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	c := NewClient(1, 2, testClientConfig(wsURL(server)), nil)
	seeded := &model.Identity{
		Account: model.Account{ID: "seeded-account"},
		Regions: []model.Region{{ID: "seeded-region"}},
	}
	c.SetIdentity(seeded)

	identity, err := c.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer c.Release()

	if identity.Account.ID != "seeded-account" {
		t.Errorf("Account.ID = %q, want seeded identity kept", identity.Account.ID)
	}
}

func TestClient_DispatchPublishesOnMux(t *testing.T) {
	serverReady := make(chan *websocket.Conn, 1)
	server := mockGateway(t, func(conn *websocket.Conn) {
		handshake(t, conn, 45000)
		serverReady <- conn
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	c := NewClient(0, 1, testClientConfig(wsURL(server)), nil)

	got := make(chan event.Event, 1)
	c.Events().Subscribe(event.KindMessageCreate, func(e event.Event) error {
		got <- e
		return nil
	})

	if _, err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer c.Release()

	conn := <-serverReady
	payload := json.RawMessage(`{"id":"msg-1","content":"hello"}`)
	conn.WriteJSON(frame{Op: opDispatch, Type: string(event.KindMessageCreate), Seq: 7, Data: payload})

	select {
	case e := <-got:
		if e.ShardID != 0 {
			t.Errorf("ShardID = %d, want 0", e.ShardID)
		}
		if string(e.Data) != string(payload) {
			t.Errorf("Data = %s, want %s", e.Data, payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch event never published")
	}
}

func TestClient_UpdatePresence(t *testing.T) {
	frames := make(chan frame, 4)
	server := mockGateway(t, func(conn *websocket.Conn) {
		handshake(t, conn, 45000)
		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			frames <- f
		}
	})
	defer server.Close()

	c := NewClient(0, 1, testClientConfig(wsURL(server)), nil)
	if _, err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer c.Release()

	p := model.Presence{Status: "idle", AFK: true}
	if err := c.UpdatePresence(context.Background(), p); err != nil {
		t.Fatalf("UpdatePresence failed: %v", err)
	}

	select {
	case f := <-frames:
		if f.Op != opPresence {
			t.Errorf("op = %d, want %d", f.Op, opPresence)
		}
		var got model.Presence
		json.Unmarshal(f.Data, &got)
		if got.Status != "idle" || !got.AFK {
			t.Errorf("presence = %+v, want idle/afk", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("presence frame never received")
	}
}

func TestClient_Heartbeat(t *testing.T) {
	frames := make(chan frame, 4)
	server := mockGateway(t, func(conn *websocket.Conn) {
		handshake(t, conn, 20) // 20ms heartbeat interval
		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			frames <- f
		}
	})
	defer server.Close()

	c := NewClient(0, 1, testClientConfig(wsURL(server)), nil)
	if _, err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer c.Release()

	select {
	case f := <-frames:
		if f.Op != opHeartbeat {
			t.Errorf("op = %d, want %d", f.Op, opHeartbeat)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("heartbeat never received")
	}
}

func TestClient_Release(t *testing.T) {
	server := mockGateway(t, func(conn *websocket.Conn) {
		handshake(t, conn, 45000)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	c := NewClient(0, 1, testClientConfig(wsURL(server)), nil)
	if _, err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if err := c.Release(); err != nil {
		t.Errorf("Release failed: %v", err)
	}
	if c.Connected() {
		t.Error("Connected after Release")
	}
	if err := c.Release(); err != nil {
		t.Errorf("second Release = %v, want nil", err)
	}

	if _, err := c.Connect(context.Background()); !errors.Is(err, ErrReleased) {
		t.Errorf("Connect after Release = %v, want ErrReleased", err)
	}
}

func TestClient_ReleaseBeforeConnect(t *testing.T) {
	c := NewClient(0, 1, DefaultClientConfig(), nil)
	if err := c.Release(); err != nil {
		t.Errorf("Release on unconnected shard = %v, want nil", err)
	}
}

func TestClient_BadHello(t *testing.T) {
	server := mockGateway(t, func(conn *websocket.Conn) {
		conn.WriteJSON(frame{Op: opHeartbeatAck})
	})
	defer server.Close()

	c := NewClient(0, 1, testClientConfig(wsURL(server)), nil)
	if _, err := c.Connect(context.Background()); !errors.Is(err, ErrHandshake) {
		t.Errorf("Connect = %v, want ErrHandshake", err)
	}
}

func TestClient_UpdatePresenceNotConnected(t *testing.T) {
	c := NewClient(0, 1, DefaultClientConfig(), nil)
	err := c.UpdatePresence(context.Background(), model.Presence{Status: "online"})
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("UpdatePresence = %v, want ErrNotConnected", err)
	}
}
