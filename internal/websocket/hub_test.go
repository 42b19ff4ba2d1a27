package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func startTestHub(t *testing.T) (*Hub, *websocket.Conn) {
	t.Helper()

	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Shutdown)

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		hub.Register(conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return hub, client
}

func TestBroadcastReachesClient(t *testing.T) {
	hub, client := startTestHub(t)

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.ClientCount() != 1 {
		t.Fatalf("client count: %d", hub.ClientCount())
	}

	hub.Broadcast("server_status", map[string]interface{}{"serverId": "abc123", "to": "Online"})

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := client.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if msg.Type != "server_status" {
		t.Errorf("type: %s", msg.Type)
	}
	data, ok := msg.Data.(map[string]interface{})
	if !ok || data["serverId"] != "abc123" {
		t.Errorf("data: %v", msg.Data)
	}
	if msg.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}

func TestClientDisconnectUnregisters(t *testing.T) {
	hub, client := startTestHub(t)

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	client.Close()

	deadline = time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.ClientCount() != 0 {
		t.Fatalf("client still registered: %d", hub.ClientCount())
	}
}

func TestBroadcastNeverBlocks(t *testing.T) {
	hub := NewHub()
	// Run is deliberately not started; the queue fills up and the rest
	// must be dropped without blocking.
	for i := 0; i < 1000; i++ {
		hub.Broadcast("servers_changed", nil)
	}
}
