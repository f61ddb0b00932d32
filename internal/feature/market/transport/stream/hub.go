// Package stream pushes live market events to websocket clients.
package stream

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"demotrade_backend/internal/api"
	"demotrade_backend/internal/feature/market/domain/entity"
	"demotrade_backend/internal/feature/market/transport/http/dto"
	"demotrade_backend/internal/feature/market/usecase"
)

const (
	sendBuffer   = 256
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
)

// SnapshotReader validates a symbol and returns its current state.
type SnapshotReader interface {
	Snapshot(symbol string) (entity.Snapshot, error)
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	symbol string
}

// Hub fans scheduler events out to the websocket clients subscribed to each symbol.
type Hub struct {
	board    SnapshotReader
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub creates a Hub. Origins are not checked; CORS policy is applied by the router.
func NewHub(board SnapshotReader) *Hub {
	return &Hub{
		board: board,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*client]struct{}),
	}
}

// Publish is a usecase.EventHandler. It never blocks: a client whose buffer is
// full is disconnected.
func (h *Hub) Publish(ev usecase.Event) {
	msg := dto.StreamMessage{
		Type:   string(ev.Kind),
		Symbol: ev.Symbol,
		Price:  ev.Price,
		Candle: dto.NewCandleResponse(ev.Candle),
		Round:  dto.NewRoundResponse(ev.Round),
	}
	if ev.Settlement != nil {
		msg.Direction = string(ev.Settlement.Direction)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal stream message", "symbol", ev.Symbol, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.symbol != ev.Symbol {
			continue
		}
		select {
		case c.send <- data:
		default:
			slog.Warn("stream client too slow, disconnecting", "symbol", c.symbol)
			h.removeLocked(c)
		}
	}
}

// Handle upgrades GET /markets/:symbol/stream and starts pumping events.
// The first message is always a snapshot of the symbol.
func (h *Hub) Handle(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	snap, err := h.board.Snapshot(symbol)
	if err != nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "unknown symbol"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "symbol", symbol, "error", err)
		return
	}

	cl := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), symbol: symbol}

	first, err := json.Marshal(dto.StreamMessage{
		Type:   "snapshot",
		Symbol: symbol,
		Price:  snap.Stats.Price,
		Candle: dto.NewCandleResponse(snap.Current),
		Round:  dto.NewRoundResponse(snap.Round),
	})
	if err != nil {
		_ = conn.Close()
		return
	}
	cl.send <- first

	if !h.register(cl) {
		_ = conn.Close()
		return
	}
	slog.Info("stream client connected", "symbol", symbol, "clients", h.ClientCount())

	go cl.writePump()
	go cl.readPump()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

// removeLocked closes the client's send channel, which makes writePump close the connection.
func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only exists to process control frames and notice disconnects.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("stream client error", "symbol", c.symbol, "error", err)
			}
			return
		}
	}
}
