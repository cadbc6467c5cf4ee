package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"nearby-server/models"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, email string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?email=" + email
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	var hello map[string]string
	readJSON(t, conn, &hello)
	if hello["type"] != "connected" {
		t.Fatalf("expected connected frame, got %v", hello)
	}
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(v); err != nil {
		t.Fatalf("read: %v", err)
	}
}

func TestNotifyReachesOnlyAddressee(t *testing.T) {
	hub, srv := startHub(t)
	alice := dial(t, srv, "a@x")
	bob := dial(t, srv, "b@x")

	match := models.Match{ID: "m1", Initiator: "b@x", Receiver: "a@x", Status: models.MatchStatusPending}
	hub.Notify("a@x", models.Event{Type: models.EventMatchCreated, MatchID: "m1", Match: &match})
	hub.Notify("b@x", models.Event{Type: models.EventMessageCreated, MatchID: "m1", Message: &models.Message{Sender: "a@x", Text: "hi"}})

	var got models.Event
	readJSON(t, alice, &got)
	if got.Type != models.EventMatchCreated || got.Match == nil || got.Match.Receiver != "a@x" {
		t.Fatalf("unexpected event for a@x: %+v", got)
	}

	readJSON(t, bob, &got)
	if got.Type != models.EventMessageCreated || got.Message == nil || got.Message.Text != "hi" {
		t.Fatalf("unexpected event for b@x: %+v", got)
	}
}

func TestNotifyFansOutToEveryConnection(t *testing.T) {
	hub, srv := startHub(t)
	first := dial(t, srv, "a@x")
	second := dial(t, srv, "a@x")

	hub.Notify("a@x", models.Event{Type: models.EventMatchRevealed, MatchID: "m1"})

	for _, conn := range []*websocket.Conn{first, second} {
		var got models.Event
		readJSON(t, conn, &got)
		if got.Type != models.EventMatchRevealed || got.MatchID != "m1" {
			t.Fatalf("unexpected event: %+v", got)
		}
	}
}

func TestServeWSRequiresEmail(t *testing.T) {
	_, srv := startHub(t)

	resp, err := http.Get(srv.URL + "/ws")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["message"] != "Email required" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestNotifyWithoutListenersDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Notify("nobody@x", models.Event{Type: models.EventMatchCreated})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked without a running hub")
	}
}
