package events

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newHubServer(t *testing.T, hub *Hub) (*httptest.Server, string) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		hub.Register(conn)
	}))
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestHubDeliversEvents(t *testing.T) {
	hub := NewHub()
	srv, wsURL := newHubServer(t, hub)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	waitForClients(t, hub, 1)

	hub.Publish(Event{Type: EventJobCreated, JobID: "job_1", Status: "assigned", ProviderID: "p1"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		t.Fatalf("decoding event: %v", err)
	}
	if event.Type != EventJobCreated || event.JobID != "job_1" {
		t.Errorf("event = %+v", event)
	}
}

func TestHubFansOutToAllClients(t *testing.T) {
	hub := NewHub()
	srv, wsURL := newHubServer(t, hub)
	defer srv.Close()

	var conns []*websocket.Conn
	for i := 0; i < 3; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatalf("dial %d: %v", i, err)
		}
		defer conn.Close()
		conns = append(conns, conn)
	}

	waitForClients(t, hub, 3)

	hub.Publish(Event{Type: EventJobCancelled, JobID: "job_2"})

	for i, conn := range conns {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("client %d read: %v", i, err)
		}
		var event Event
		if err := json.Unmarshal(payload, &event); err != nil {
			t.Fatalf("client %d decode: %v", i, err)
		}
		if event.JobID != "job_2" {
			t.Errorf("client %d event = %+v", i, event)
		}
	}
}

func TestHubDropsDisconnectedClients(t *testing.T) {
	hub := NewHub()
	srv, wsURL := newHubServer(t, hub)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	waitForClients(t, hub, 1)
	conn.Close()
	waitForClients(t, hub, 0)

	// Publishing with no clients must not block or panic.
	hub.Publish(Event{Type: EventJobCreated, JobID: "job_3"})
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("client count never reached %d (now %d)", want, hub.ClientCount())
}
