package handler

import (
	"context"
	"net/http"
	"slices"

	"textbookexchange/backend/internal/apperr"
	"textbookexchange/backend/internal/auth"
	"textbookexchange/backend/internal/chathub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Resolver turns a raw bearer token into an identity.
type Resolver interface {
	Resolve(ctx context.Context, token string) auth.Identity
}

func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowedOrigins, origin)
		},
	}
}

// ServeWebSocket upgrades the connection and subscribes it to the chat
// topic. A ?token= query parameter binds the connection to a user, whose id
// then replaces the senderId of every inbound message.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	var userID *uint
	if token := c.Query("token"); token != "" {
		id := h.Gate.Resolve(c.Request.Context(), token)
		user, ok := id.User()
		if !ok {
			h.respondError(c, apperr.ErrUnauthenticated)
			return
		}
		userID = &user.ID
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.Log.Debug("WebSocket upgrade failed", "error", err)
		return
	}

	client := chathub.NewWebSocketClient(h.baseCtx, conn, h.Hub, h.Relay, userID, h.Log)
	if !h.Hub.Register(client) {
		conn.Close()
		return
	}
	client.Run()
}
