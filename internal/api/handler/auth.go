package handler

import (
	"net/http"

	"textbookexchange/backend/internal/account"
	"textbookexchange/backend/internal/auth"
	"textbookexchange/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// Register creates an unverified account and sends the verification mail.
func (h *Handler) Register(c *gin.Context) {
	var req account.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	user, err := h.Accounts.Register(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.ToUserDTO(user))
}

func (h *Handler) Verify(c *gin.Context) {
	if err := h.Accounts.Verify(c.Request.Context(), c.Query("token")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account verified"})
}

// Login exchanges credentials for a bearer token.
func (h *Handler) Login(c *gin.Context) {
	var req account.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	token, err := h.Accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) CurrentUser(c *gin.Context) {
	user, err := h.Accounts.CurrentUser(auth.IdentityFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToUserDTO(user))
}

// GetUser returns the public profile of another account, e.g. the other
// party of a conversation.
func (h *Handler) GetUser(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	user, err := h.Accounts.User(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToUserDTO(user))
}
