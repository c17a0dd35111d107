package realtime

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-restaurant-pos/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws", hub.HandleWebSocket())
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode %q: %v", data, err)
	}
	return msg
}

func TestBroadcastReachesEveryListener(t *testing.T) {
	hub := NewHub([]string{"*"}, logger.Discard())
	srv := newTestServer(t, hub)

	a, b := dial(t, srv), dial(t, srv)
	for _, c := range []*websocket.Conn{a, b} {
		if msg := readMessage(t, c); msg.Event != "connected" {
			t.Fatalf("first frame event = %q, want connected", msg.Event)
		}
	}

	hub.Broadcast("newOrder", map[string]string{"order_id": "42"})

	for _, c := range []*websocket.Conn{a, b} {
		msg := readMessage(t, c)
		if msg.Event != "newOrder" {
			t.Fatalf("event = %q, want newOrder", msg.Event)
		}
		payload, ok := msg.Payload.(map[string]any)
		if !ok || payload["order_id"] != "42" {
			t.Fatalf("payload = %#v", msg.Payload)
		}
	}
}

func TestDisconnectedListenerIsDropped(t *testing.T) {
	hub := NewHub([]string{"*"}, logger.Discard())
	srv := newTestServer(t, hub)

	conn := dial(t, srv)
	readMessage(t, conn)
	if hub.Clients() != 1 {
		t.Fatalf("clients = %d, want 1", hub.Clients())
	}

	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != 0 && time.Now().Before(deadline) {
		hub.Broadcast("ping", nil)
		time.Sleep(10 * time.Millisecond)
	}
	if hub.Clients() != 0 {
		t.Fatalf("clients = %d after disconnect, want 0", hub.Clients())
	}
}

func TestOriginCheck(t *testing.T) {
	hub := NewHub([]string{"http://pos.local"}, logger.Discard())
	srv := newTestServer(t, hub)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	header := map[string][]string{"Origin": {"http://evil.example"}}
	if _, _, err := websocket.DefaultDialer.Dial(url, header); err == nil {
		t.Fatal("dial from a foreign origin succeeded")
	}

	header = map[string][]string{"Origin": {"http://pos.local"}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial from allowed origin: %v", err)
	}
	conn.Close()
}

func TestStalledListenerDoesNotBlockBroadcast(t *testing.T) {
	hub := NewHub([]string{"*"}, logger.Discard())
	srv := newTestServer(t, hub)

	stalled := dial(t, srv)
	readMessage(t, stalled)
	if hub.Clients() != 1 {
		t.Fatalf("clients = %d, want 1", hub.Clients())
	}

	// The listener never reads again, so socket buffers and then its queue
	// fill up.
	payload := strings.Repeat("x", 128<<10)
	start := time.Now()
	for i := 0; i < 200; i++ {
		hub.Broadcast("itemStatus", payload)
	}
	if elapsed := time.Since(start); elapsed >= writeWait {
		t.Fatalf("broadcasts took %v with a stalled listener", elapsed)
	}
	if hub.Clients() != 0 {
		t.Fatalf("clients = %d, want the stalled listener dropped", hub.Clients())
	}
}
