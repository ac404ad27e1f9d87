package chathub

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"textbookexchange/backend/internal/models"

	"github.com/samber/lo"
)

// MessageStore is what the relay needs from storage.
type MessageStore interface {
	UserFinder
	SaveMessage(ctx context.Context, msg *models.ChatMessage) error
}

// Relay validates, persists and fans out inbound chat messages.
type Relay struct {
	store MessageStore
	hub   *ManagerService
	log   *slog.Logger
	now   func() time.Time
}

func NewRelay(store MessageStore, hub *ManagerService, log *slog.Logger) *Relay {
	return &Relay{store: store, hub: hub, log: log, now: time.Now}
}

// Process handles one raw frame received from client. It never panics.
func (r *Relay) Process(ctx context.Context, client Client, raw []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("Recovered from panic while relaying message", "client_id", client.GetClientID(), "panic", rec)
			r.reject(client, "internal error", nil)
		}
	}()

	var in models.InboundMessage
	if err := json.Unmarshal(raw, &in); err != nil {
		r.log.Debug("Undecodable chat frame", "client_id", client.GetClientID(), "error", err)
		r.reject(client, "malformed message", nil)
		return
	}
	if userID, ok := client.GetUserID(); ok {
		in.SenderID = lo.ToPtr(userID)
	}
	if !in.Valid() {
		r.reject(client, "senderId, receiverId and non-empty content are required", nil)
		return
	}

	msg := in.ToChatMessage(r.now().UTC())
	if err := r.store.SaveMessage(ctx, &msg); err != nil {
		r.log.Error("Failed to save message", "sender_id", msg.SenderID, "receiver_id", msg.ReceiverID, "error", err)
		echo := models.EchoDTO(in, r.senderName(ctx, msg.SenderID))
		r.reject(client, "message not saved", &echo)
		return
	}

	dto := models.ToMessageDTO(msg, r.senderName(ctx, msg.SenderID))
	r.hub.Broadcast(models.Frame{Type: models.FrameMessage, Message: &dto})
}

func (r *Relay) senderName(ctx context.Context, id uint) string {
	return ResolveSenderNames(ctx, r.store, r.log, []uint{id})[id]
}

func (r *Relay) reject(client Client, reason string, echo *models.MessageDTO) {
	r.hub.SendTo(client.GetClientID(), models.Frame{Type: models.FrameError, Error: reason, Message: echo})
}
