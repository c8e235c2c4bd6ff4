// Package ws streams freshly computed liquidity snapshots to websocket clients.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"LiqPull/internal/domain/models"
	domrepo "LiqPull/internal/domain/repository"
	applogger "LiqPull/pkg/logger"
)

const (
	sendBuffer   = 4
	writeTimeout = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = pongWait * 9 / 10
)

type message struct {
	Type string                  `json:"type"`
	Data *models.AggregateResult `json:"data"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans snapshots out to connected clients. New clients immediately
// receive the last snapshot.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	last     []byte
	closed   bool
	upgrader websocket.Upgrader
	l        *applogger.Logger
}

func NewHub(l *applogger.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		l: l,
	}
}

func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/liquidity", h.Serve)
}

func (h *Hub) Name() string { return "websocket" }

// Serve upgrades the request and streams snapshots until the client leaves.
func (h *Hub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.l.Warn("ws upgrade failed", applogger.Error(err))
		return nil
	}

	cl := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.register(cl) {
		_ = conn.Close()
		return nil
	}
	h.l.Debug("ws client connected",
		applogger.String("remote", c.RealIP()),
		applogger.Int("clients", h.Clients()),
	)

	go h.writeLoop(cl)
	h.readLoop(cl)
	h.l.Debug("ws client disconnected",
		applogger.String("remote", c.RealIP()),
		applogger.Int("clients", h.Clients()),
	)
	return nil
}

func (h *Hub) register(cl *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[cl] = struct{}{}
	if h.last != nil {
		cl.send <- h.last
	}
	return true
}

func (h *Hub) unregister(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
}

// readLoop only drains control frames; clients never send data.
func (h *Hub) readLoop(cl *client) {
	defer h.unregister(cl)
	cl.conn.SetReadLimit(512)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(cl *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()
	for {
		select {
		case b, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// PublishSnapshot broadcasts res. Clients that cannot keep up are dropped.
func (h *Hub) PublishSnapshot(_ context.Context, res *models.AggregateResult) error {
	if res == nil {
		return nil
	}
	b, err := json.Marshal(message{Type: "snapshot", Data: res})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = b
	for cl := range h.clients {
		select {
		case cl.send <- b:
		default:
			// drop on backpressure
			delete(h.clients, cl)
			close(cl.send)
		}
	}
	return nil
}

// Clients reports the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for cl := range h.clients {
		delete(h.clients, cl)
		close(cl.send)
	}
}

var _ domrepo.SnapshotPublisher = (*Hub)(nil)
