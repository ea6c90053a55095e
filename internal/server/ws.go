package server

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			return true
		}
		// Basic same-origin check; good enough for localhost use.
		host := strings.TrimSpace(r.Host)
		return strings.Contains(origin, "://"+host)
	},
}

// changeMsg tells open board pages that the board moved on and they should
// re-fetch. Rev only ever grows within a server process.
type changeMsg struct {
	Type string `json:"type"`
	Rev  uint64 `json:"rev"`
}

// hub fans a change notification out to every connected watch socket.
type hub struct {
	mu     sync.Mutex
	conns  map[*websocket.Conn]bool
	rev    uint64
	logger *log.Logger
}

func newHub(logger *log.Logger) *hub {
	return &hub{conns: map[*websocket.Conn]bool{}, logger: logger}
}

func (h *hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

// notify bumps the revision and pushes it to every connection. Connections
// that fail to take the write are dropped.
func (h *hub) notify() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rev++
	msg := changeMsg{Type: "update", Rev: h.rev}
	for conn := range h.conns {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(msg); err != nil {
			h.logger.Debug("dropping watch connection", "err", err)
			delete(h.conns, conn)
			_ = conn.Close()
		}
	}
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "websocket upgrade failed", http.StatusBadRequest)
		return
	}
	s.hub.add(conn)
	defer s.hub.remove(conn)

	// The socket is push-only. Reading keeps ping/pong flowing and notices
	// the peer going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
