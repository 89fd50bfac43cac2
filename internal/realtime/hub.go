package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hackfest/ideavote/internal/scoring"
	"github.com/hackfest/ideavote/pkg/logger"
)

// Frame is the single message shape pushed to every subscriber. There is no
// per-client filtering: judge, audience and admin dashboards all observe the
// same broadcast.
type Frame struct {
	Type      string                       `json:"type"`
	Timestamp time.Time                    `json:"timestamp"`
	Scores    map[int64]scoring.IdeaScores `json:"scores,omitempty"`
	Winner    *scoring.Winner              `json:"winner,omitempty"`
}

const (
	FrameScores = "scores"

	writeTimeout = 10 * time.Second
)

// Hub fans broadcast frames out to every connected viewer. All writes to a
// connection happen on the Run goroutine; handlers only read.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan registration
	unregister chan *websocket.Conn
	mu         sync.RWMutex
}

// registration carries an optional first frame so the connect-time snapshot
// is written by the run loop, never by the handler goroutine.
type registration struct {
	conn    *websocket.Conn
	initial []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan registration),
		unregister: make(chan *websocket.Conn),
	}
}

// Run owns the client set until the context is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return ctx.Err()

		case reg := <-h.register:
			h.mu.Lock()
			h.clients[reg.conn] = true
			total := len(h.clients)
			h.mu.Unlock()
			logger.Debug("Viewer connected", "total", total)

			if reg.initial != nil {
				reg.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := reg.conn.WriteMessage(websocket.TextMessage, reg.initial); err != nil {
					logger.Debug("Viewer write failed", "error", err)
					h.mu.Lock()
					delete(h.clients, reg.conn)
					h.mu.Unlock()
					reg.conn.Close()
				}
			}

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			total := len(h.clients)
			h.mu.Unlock()
			logger.Debug("Viewer disconnected", "total", total)

		case message := <-h.broadcast:
			h.mu.RLock()
			conns := make([]*websocket.Conn, 0, len(h.clients))
			for conn := range h.clients {
				conns = append(conns, conn)
			}
			h.mu.RUnlock()

			for _, conn := range conns {
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					logger.Debug("Viewer write failed", "error", err)
					select {
					case h.unregister <- conn:
					default:
					}
				}
			}
		}
	}
}

// Broadcast queues a frame for every connected client. A full queue drops
// the frame; the next broadcast carries the complete state anyway.
func (h *Hub) Broadcast(frame Frame) {
	message, err := json.Marshal(frame)
	if err != nil {
		logger.Warn("Failed to marshal broadcast frame", "error", err)
		return
	}

	select {
	case h.broadcast <- message:
	default:
		logger.Warn("Broadcast channel full, dropping frame")
	}
}

// RegisterClient adds a viewer. The initial frame, when given, is written by
// the run loop before any broadcast reaches the connection.
func (h *Hub) RegisterClient(conn *websocket.Conn, initial *Frame) {
	var payload []byte
	if initial != nil {
		b, err := json.Marshal(initial)
		if err != nil {
			logger.Warn("Failed to marshal initial frame", "error", err)
		} else {
			payload = b
		}
	}
	h.register <- registration{conn: conn, initial: payload}
}

func (h *Hub) UnregisterClient(conn *websocket.Conn) {
	select {
	case h.unregister <- conn:
	default:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
