package handler

import (
	"net/http"

	"textbookexchange/backend/internal/apperr"
	"textbookexchange/backend/internal/chathub"
	"textbookexchange/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// Conversation returns every message exchanged between userA and userB in
// either direction, oldest first.
func (h *Handler) Conversation(c *gin.Context) {
	userA, err := idParam(c, "userA")
	if err != nil {
		h.respondError(c, err)
		return
	}
	userB, err := idParam(c, "userB")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := authorizeParticipant(c, userA, userB); err != nil {
		h.respondError(c, err)
		return
	}

	msgs, err := h.Messages.FindBetween(c.Request.Context(), userA, userB)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chathub.EnrichMessages(c.Request.Context(), h.Messages, h.Log, msgs))
}

// ReceivedBy returns every message addressed to userId, oldest first.
func (h *Handler) ReceivedBy(c *gin.Context) {
	userID, err := idParam(c, "userId")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := authorizeParticipant(c, userID); err != nil {
		h.respondError(c, err)
		return
	}

	msgs, err := h.Messages.FindReceivedBy(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chathub.EnrichMessages(c.Request.Context(), h.Messages, h.Log, msgs))
}

// authorizeParticipant lets admins and the users named in the path through.
func authorizeParticipant(c *gin.Context, participants ...uint) error {
	user, err := caller(c)
	if err != nil {
		return err
	}
	if lo.Contains(participants, user.ID) || user.HasRole(models.RoleAdmin) {
		return nil
	}
	return apperr.ErrForbidden
}
