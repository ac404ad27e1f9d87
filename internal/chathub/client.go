package chathub

import "textbookexchange/backend/internal/models"

// Client is one subscriber of the chat topic.
// It abstracts the underlying connection so the hub can be tested without
// a network.
type Client interface {
	// GetClientID returns the identifier the hub indexes the client by.
	GetClientID() string
	// GetUserID returns the authenticated user behind the connection, if the
	// connection was opened with a valid token.
	GetUserID() (uint, bool)

	// GetSendChannel returns the channel the hub writes outbound frames to.
	// Only the hub goroutine sends on it.
	GetSendChannel() chan<- models.Frame

	// Run starts the client's read and write pumps.
	Run()
	// Close closes the send channel, which stops the write pump.
	Close()
}
