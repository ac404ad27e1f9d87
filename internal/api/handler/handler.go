// Package handler exposes the HTTP and WebSocket surface of the service.
package handler

import (
	"context"
	"log/slog"

	"textbookexchange/backend/internal/account"
	"textbookexchange/backend/internal/chathub"
	"textbookexchange/backend/internal/listing"
	"textbookexchange/backend/internal/models"

	"github.com/gorilla/websocket"
)

// MessageReader is the read side of the message store.
type MessageReader interface {
	chathub.UserFinder
	FindBetween(ctx context.Context, userA, userB uint) ([]models.ChatMessage, error)
	FindReceivedBy(ctx context.Context, userID uint) ([]models.ChatMessage, error)
}

// Handler holds the services every route delegates to.
type Handler struct {
	Accounts *account.Service
	Listings *listing.Service
	Messages MessageReader
	Hub      *chathub.ManagerService
	Relay    *chathub.Relay
	Gate     Resolver
	Log      *slog.Logger

	upgrader websocket.Upgrader
	// baseCtx outlives single requests; chat connections run under it.
	baseCtx context.Context
}

func NewHandler(
	ctx context.Context,
	accounts *account.Service,
	listings *listing.Service,
	messages MessageReader,
	hub *chathub.ManagerService,
	relay *chathub.Relay,
	gate Resolver,
	log *slog.Logger,
	allowedOrigins []string,
) *Handler {
	return &Handler{
		Accounts: accounts,
		Listings: listings,
		Messages: messages,
		Hub:      hub,
		Relay:    relay,
		Gate:     gate,
		Log:      log,
		upgrader: newUpgrader(allowedOrigins),
		baseCtx:  ctx,
	}
}
