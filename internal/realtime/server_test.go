package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

func setupRealtimeServer(t *testing.T, frontendBaseURL string) (*Server, *miniredis.Miniredis, context.CancelFunc) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	srv := NewServer(hub, rdb, ctx, frontendBaseURL)
	return srv, mr, cancel
}

func TestHandleWS_WelcomeThenBroadcast(t *testing.T) {
	srv, _, cancel := setupRealtimeServer(t, "")
	defer cancel()

	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	var welcome map[string]any
	if err := json.Unmarshal(raw, &welcome); err != nil {
		t.Fatalf("welcome not JSON: %v", err)
	}
	if welcome["type"] != "welcome" {
		t.Errorf("first message type = %v; want welcome", welcome["type"])
	}

	event := []byte(`{"type":"entry.added","payload":{"id":"abc"}}`)
	srv.hub.Broadcast(event)

	_, raw, err = ws.ReadMessage()
	if err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if string(raw) != string(event) {
		t.Errorf("broadcast = %s; want %s", raw, event)
	}
}

func TestHandleWS_OriginCheck(t *testing.T) {
	srv, _, cancel := setupRealtimeServer(t, "https://party.example.com")
	defer cancel()

	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")

	badHeader := http.Header{"Origin": []string{"https://evil.example.com"}}
	if _, resp, err := websocket.DefaultDialer.Dial(url, badHeader); err == nil {
		t.Error("expected handshake failure for foreign origin")
	} else if resp != nil && resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d; want %d", resp.StatusCode, http.StatusForbidden)
	}

	goodHeader := http.Header{"Origin": []string{"https://party.example.com"}}
	ws, _, err := websocket.DefaultDialer.Dial(url, goodHeader)
	if err != nil {
		t.Fatalf("dial with allowed origin: %v", err)
	}
	ws.Close()
}

func TestHandleEvents_PublishesToRedis(t *testing.T) {
	srv, mr, cancel := setupRealtimeServer(t, "")
	defer cancel()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sub := rdb.Subscribe(context.Background(), "broadcast")
	defer sub.Close()
	if _, err := sub.Receive(context.Background()); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	body := `{"type":"entry.deleted","payload":{"id":"xyz"}}`
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	rr := httptest.NewRecorder()
	srv.HandleEvents(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d (body: %s)", rr.Code, http.StatusOK, rr.Body.String())
	}
	var resp map[string]bool
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp["ok"] {
		t.Error("expected ok=true")
	}

	select {
	case msg := <-sub.Channel():
		var got, want map[string]any
		if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
			t.Fatalf("published payload not JSON: %v", err)
		}
		_ = json.Unmarshal([]byte(body), &want)
		if got["type"] != want["type"] {
			t.Errorf("published type = %v; want %v", got["type"], want["type"])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message published to broadcast channel")
	}
}

func TestHandleEvents_InvalidJSON(t *testing.T) {
	srv, _, cancel := setupRealtimeServer(t, "")
	defer cancel()

	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader("{nope"))
	rr := httptest.NewRecorder()
	srv.HandleEvents(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestRedisSubscriber_PumpsIntoHub(t *testing.T) {
	srv, mr, cancel := setupRealtimeServer(t, "")
	defer cancel()

	go srv.RunRedisSubscriber()
	time.Sleep(50 * time.Millisecond)

	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := ws.ReadMessage(); err != nil { // welcome
		t.Fatalf("read welcome: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	event := `{"type":"entry.updated","payload":{"id":"abc"}}`
	if err := rdb.Publish(context.Background(), "broadcast", event).Err(); err != nil {
		t.Fatalf("publish: %v", err)
	}

	_, raw, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	if string(raw) != event {
		t.Errorf("event = %s; want %s", raw, event)
	}
}
