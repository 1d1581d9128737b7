package server

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/selimcan/tagsense/internal/tagstore"
)

const eventWriteTimeout = 5 * time.Second

// eventHub fans tag store events out to connected websocket clients.
// Slow or dead clients are dropped rather than blocking the store's
// synchronous event dispatch.
type eventHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	closed  bool
}

func newEventHub() *eventHub {
	return &eventHub{clients: make(map[*websocket.Conn]bool)}
}

func (h *eventHub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		conn.Close()
		return
	}
	h.clients[conn] = true
}

func (h *eventHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[conn] {
		delete(h.clients, conn)
		conn.Close()
	}
}

func (h *eventHub) broadcast(ev tagstore.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
		if err := conn.WriteJSON(ev); err != nil {
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

func (h *eventHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy is enforced by the CORS middleware for the rest of
	// the API; the event stream is local-only like everything else.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleEvents upgrades the connection and streams tag store events
// until the client goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("events upgrade: %v", err)
		return
	}
	s.hub.add(conn)

	// Reads only serve to detect disconnect; clients never send data.
	go func() {
		defer s.hub.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
