package handler

import (
	"fmt"
	"net/http"
	"time"

	"textbookexchange/backend/internal/auth"
	"textbookexchange/backend/internal/listing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// PublicRoutes skip token inspection entirely.
var PublicRoutes = []string{
	"POST /auth/login",
	"POST /auth/register",
	"GET /auth/verify",
	"GET /listings",
	"GET /listings/:id",
	"GET /ws",
	"GET /healthz",
}

// NewRouter wires every route behind the authentication gate.
func NewRouter(h *Handler, gate *auth.Gate, allowedOrigins []string) (*gin.Engine, error) {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := listing.RegisterValidators(v); err != nil {
			return nil, fmt.Errorf("register validators: %w", err)
		}
	}

	r := gin.Default()
	if len(allowedOrigins) > 0 {
		r.Use(newCORS(allowedOrigins))
	}
	r.Use(gate.Middleware())

	r.GET("/healthz", h.Health)

	authGroup := r.Group("/auth")
	authGroup.POST("/register", h.Register)
	authGroup.GET("/verify", h.Verify)
	authGroup.POST("/login", h.Login)
	authGroup.GET("/user", auth.RequireAuth(), h.CurrentUser)

	r.GET("/users/:id", auth.RequireAuth(), h.GetUser)

	r.GET("/listings", h.SearchListings)
	r.GET("/listings/:id", h.GetListing)
	listings := r.Group("/listings", auth.RequireAuth())
	listings.GET("/mine", h.MyListings)
	listings.POST("", h.CreateListing)
	listings.PUT("/:id", h.UpdateListing)
	listings.DELETE("/:id", h.DeleteListing)

	messages := r.Group("/messages", auth.RequireAuth())
	messages.GET("/conversation/:userA/:userB", h.Conversation)
	messages.GET("/receivedBy/:userId", h.ReceivedBy)

	r.GET("/ws", h.ServeWebSocket)
	return r, nil
}

// newCORS allows the configured browser origins. Requests from other
// origins are rejected with 403.
func newCORS(allowed []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     allowed,
		AllowCredentials: true,
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		MaxAge:           12 * time.Hour,
	})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
