package handler

import (
	"errors"
	"fmt"
	"net/http"

	"textbookexchange/backend/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// respondError writes err as {"error": ...} with the status apperr maps it
// to. Validation failures also carry a per-field "fields" map.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		h.Log.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(status, gin.H{"error": "internal server error"})
		return
	}

	body := gin.H{"error": err.Error()}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fields := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields[fe.Field()] = fe.Tag()
		}
		body["error"] = apperr.ErrValidation.Error()
		body["fields"] = fields
	}
	c.AbortWithStatusJSON(status, body)
}

// bindError wraps a gin binding failure so it maps to 400.
func bindError(err error) error {
	return fmt.Errorf("%w: %w", apperr.ErrValidation, err)
}
