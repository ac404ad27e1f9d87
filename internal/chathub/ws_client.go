package chathub

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"textbookexchange/backend/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

// WebSocketClient implements Client on top of a gorilla connection.
type WebSocketClient struct {
	ID     string
	UserID *uint
	Conn   *websocket.Conn
	Hub    *ManagerService
	Relay  *Relay
	Send   chan models.Frame

	ctx       context.Context
	log       *slog.Logger
	closeOnce sync.Once
}

// NewWebSocketClient wraps conn. userID is nil for anonymous connections.
func NewWebSocketClient(ctx context.Context, conn *websocket.Conn, hub *ManagerService, relay *Relay, userID *uint, log *slog.Logger) *WebSocketClient {
	id := uuid.NewString()
	return &WebSocketClient{
		ID:     id,
		UserID: userID,
		Conn:   conn,
		Hub:    hub,
		Relay:  relay,
		Send:   make(chan models.Frame, sendBuffer),
		ctx:    ctx,
		log:    log.With("client_id", id),
	}
}

func (c *WebSocketClient) GetClientID() string { return c.ID }

func (c *WebSocketClient) GetUserID() (uint, bool) {
	if c.UserID == nil {
		return 0, false
	}
	return *c.UserID, true
}

func (c *WebSocketClient) GetSendChannel() chan<- models.Frame { return c.Send }

// Run starts the pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close closes the Send channel, which stops writePump.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() { close(c.Send) })
}

// readPump hands every frame to the relay in arrival order.
func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("Error reading message", "error", err)
			}
			return
		}
		c.Relay.Process(c.ctx, c, message)
	}
}

// writePump writes frames from Send to the connection, one JSON document
// per WebSocket message, and keeps the connection alive with pings.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(frame); err != nil {
				c.log.Debug("Write failed", "error", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
