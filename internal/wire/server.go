package wire

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/schmidtdse/joshsim/internal/obslog"
)

const (
	writeWait        = 5 * time.Second
	closeGracePeriod = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server fans wire-format lines out to every connected websocket
// client, the way the teacher's Server pushes view updates: a single
// upgrade handler plus a broadcast method callers drive from the
// scheduler's progress callback.
type Server struct {
	addr string

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewServer builds a Server bound to addr (e.g. ":8080").
func NewServer(addr string) *Server {
	return &Server{addr: addr, clients: make(map[*websocket.Conn]bool)}
}

// Serve blocks, handling upgrade requests on /stream until the process
// exits or ListenAndServe errors.
func (s *Server) Serve() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/stream", s.handleUpgrade)
	return http.ListenAndServe(s.addr, mux)
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		obslog.Get(obslog.CategoryExporter).Errorw("websocket upgrade failed", "error", err)
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	defer s.drop(conn)
	// The protocol is server->client only; read and discard to detect
	// client-initiated close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
}

// Broadcast writes line to every connected client, dropping any that
// fail to accept the write within writeWait.
func (s *Server) Broadcast(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			delete(s.clients, conn)
			conn.Close()
		}
	}
}
