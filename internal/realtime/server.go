package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	hub      *Hub
	rdb      *redis.Client
	ctx      context.Context
	upgrader websocket.Upgrader
}

// NewServer builds the websocket endpoint. When frontendBaseURL is set, only
// that origin may connect; when empty (development), any origin is allowed.
func NewServer(hub *Hub, rdb *redis.Client, ctx context.Context, frontendBaseURL string) *Server {
	return &Server{
		hub: hub,
		rdb: rdb,
		ctx: ctx,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if frontendBaseURL == "" {
					return true
				}
				origin := r.Header.Get("Origin")
				return origin == "" || origin == frontendBaseURL
			},
		},
	}
}

// RunRedisSubscriber pumps the broadcast channel into the hub. It returns
// when the subscription channel closes.
func (s *Server) RunRedisSubscriber() {
	sub := s.rdb.Subscribe(s.ctx, "broadcast")
	defer sub.Close()

	ch := sub.Channel()
	for msg := range ch {
		s.hub.broadcast <- []byte(msg.Payload)
	}
}

// HandleWS serves GET /ws.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("realtime: ws upgrade: %v", err)
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	s.hub.register <- client

	welcome := map[string]any{
		"type": "welcome",
		"now":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	if b, err := json.Marshal(welcome); err == nil {
		client.send <- b
	}

	go client.writePump()
	go client.readPump()
}

// HandleEvents serves POST /events: publish an arbitrary event to the
// broadcast channel on behalf of another process.
func (s *Server) HandleEvents(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encode error")
		return
	}
	if err := s.rdb.Publish(s.ctx, "broadcast", string(data)).Err(); err != nil {
		log.Printf("realtime: publish event: %v", err)
		writeError(w, http.StatusInternalServerError, "redis error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
