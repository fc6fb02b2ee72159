package broadcast

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// dialHub connects a test WebSocket client to a running hub.
func dialHub(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_BroadcastReachesSubscribers(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := httptest.NewServer(hub)
	defer server.Close()

	first := dialHub(t, server)
	second := dialHub(t, server)

	// Registration goes through the hub's channel; give it a beat
	// before broadcasting.
	time.Sleep(50 * time.Millisecond)

	sent := Event{
		Type:     "products",
		Metadata: map[string]any{"id": "42", "action": "updated"},
		At:       time.Now().UTC(),
	}
	hub.Notify(ctx, sent)

	for _, conn := range []*websocket.Conn{first, second} {
		if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
			t.Fatalf("set read deadline: %v", err)
		}
		_, payload, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}

		var got Event
		if err := json.Unmarshal(payload, &got); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if got.Type != "products" {
			t.Errorf("got type %q, want products", got.Type)
		}
		if got.Metadata["id"] != "42" {
			t.Errorf("got metadata id %v, want 42", got.Metadata["id"])
		}
	}
}

func TestHub_NotifyNeverBlocks(t *testing.T) {
	hub := NewHub()
	// Hub not running: the queue fills up, then events are dropped
	// instead of blocking the invalidation path.
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			hub.Notify(ctx, Event{Type: "settings"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked with no hub consumer")
	}
}

func TestHub_SubscribeAfterShutdownDoesNotHang(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		hub.Run(ctx)
	}()

	server := httptest.NewServer(hub)
	defer server.Close()

	cancel()
	<-runDone

	// A connection arriving after shutdown must be closed immediately
	// instead of blocking the handler on the registration channel.
	conn := dialHub(t, server)
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected the connection to be closed after hub shutdown")
	}
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(hub)
	defer server.Close()

	conn := dialHub(t, server)
	time.Sleep(50 * time.Millisecond)

	cancel()

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	// The hub closes the connection on shutdown; the read must fail
	// rather than hang.
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected read to fail after hub shutdown")
	}
}
