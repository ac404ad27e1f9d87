package models

import (
	"strings"
	"time"
)

// UnknownSender is shown when the sender of a message cannot be resolved.
const UnknownSender = "Unknown"

// ChatMessage represents a persisted chat message.
// Rows are append-only: the core never updates or deletes them.
type ChatMessage struct {
	// ID is assigned by the database on insert and grows monotonically.
	ID uint `gorm:"primaryKey"`
	// SenderID and ReceiverID reference users.ID by value only.
	SenderID   uint   `gorm:"not null;index:idx_msg_pair,priority:1;index:idx_msg_sender"`
	ReceiverID uint   `gorm:"not null;index:idx_msg_pair,priority:2;index:idx_msg_receiver"`
	Content    string `gorm:"type:text;not null"`
	// Timestamp is set by the server right before the insert.
	Timestamp time.Time `gorm:"column:sent_at;not null;index"`
}

// InboundMessage is the payload a client sends over the chat connection.
// Pointer ids distinguish a missing id from user 0.
type InboundMessage struct {
	SenderID   *uint  `json:"senderId"`
	ReceiverID *uint  `json:"receiverId"`
	Content    string `json:"content"`
}

// Valid reports whether the message may be persisted.
func (m InboundMessage) Valid() bool {
	return m.SenderID != nil && m.ReceiverID != nil && strings.TrimSpace(m.Content) != ""
}

// ToChatMessage builds the row to insert, stamped with at.
// It must only be called on a valid message.
func (m InboundMessage) ToChatMessage(at time.Time) ChatMessage {
	return ChatMessage{
		SenderID:   *m.SenderID,
		ReceiverID: *m.ReceiverID,
		Content:    m.Content,
		Timestamp:  at,
	}
}

// MessageDTO is the wire form of a message, enriched with the sender name.
type MessageDTO struct {
	ID         uint       `json:"id"`
	SenderID   *uint      `json:"senderId"`
	SenderName string     `json:"senderName"`
	ReceiverID *uint      `json:"receiverId"`
	Content    string     `json:"content"`
	Timestamp  *time.Time `json:"timestamp"`
}

// ToMessageDTO is a pure transform; callers resolve senderName beforehand.
func ToMessageDTO(m ChatMessage, senderName string) MessageDTO {
	sender, receiver, ts := m.SenderID, m.ReceiverID, m.Timestamp
	return MessageDTO{
		ID:         m.ID,
		SenderID:   &sender,
		SenderName: senderName,
		ReceiverID: &receiver,
		Content:    m.Content,
		Timestamp:  &ts,
	}
}

// EchoDTO mirrors an inbound payload that was never persisted: no id and no
// timestamp.
func EchoDTO(m InboundMessage, senderName string) MessageDTO {
	return MessageDTO{
		SenderID:   m.SenderID,
		SenderName: senderName,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
	}
}

// Frame types sent to chat subscribers.
const (
	FrameMessage = "message"
	FrameError   = "error"
)

// Frame is one outbound unit on the chat connection.
type Frame struct {
	Type    string      `json:"type"`
	Message *MessageDTO `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}
