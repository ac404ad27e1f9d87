package handler

import (
	"strconv"

	"textbookexchange/backend/internal/apperr"
	"textbookexchange/backend/internal/auth"
	"textbookexchange/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// idParam parses a numeric path parameter.
func idParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, apperr.Validation("%s must be a positive integer", name)
	}
	return uint(id), nil
}

// caller returns the authenticated user. Routes using it sit behind
// auth.RequireAuth.
func caller(c *gin.Context) (*models.User, error) {
	user, ok := auth.IdentityFrom(c).User()
	if !ok {
		return nil, apperr.ErrUnauthenticated
	}
	return user, nil
}
