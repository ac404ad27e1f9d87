package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"textbookexchange/backend/internal/apperr"
	"textbookexchange/backend/internal/models"

	"github.com/gin-gonic/gin"
)

const bearerPrefix = "Bearer "

// UserLookup resolves the subject of a token to an account.
type UserLookup interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Gate attaches an Identity to every request. It never rejects a request
// itself; RequireAuth and the handlers decide what anonymous callers may do.
type Gate struct {
	tokens *TokenService
	users  UserLookup
	log    *slog.Logger
	public map[string]struct{}
}

// NewGate builds a gate. publicRoutes are "METHOD /route/:template" entries
// that skip token inspection entirely.
func NewGate(tokens *TokenService, users UserLookup, log *slog.Logger, publicRoutes ...string) *Gate {
	public := make(map[string]struct{}, len(publicRoutes))
	for _, r := range publicRoutes {
		public[r] = struct{}{}
	}
	return &Gate{tokens: tokens, users: users, log: log, public: public}
}

// IsPublic reports whether method+route is on the allowlist.
func (g *Gate) IsPublic(method, route string) bool {
	_, ok := g.public[method+" "+route]
	return ok
}

// Middleware is the gin handler for the gate.
func (g *Gate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if g.IsPublic(c.Request.Method, c.FullPath()) {
			c.Next()
			return
		}
		// Never overwrite an identity set earlier in the chain.
		if _, exists := c.Get(identityKey); exists {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, bearerPrefix) {
			c.Next()
			return
		}

		id := g.Resolve(c.Request.Context(), strings.TrimSpace(header[len(bearerPrefix):]))
		if id.Kind() == Authenticated {
			setIdentity(c, id)
		}
		c.Next()
	}
}

// Resolve turns a raw token into an Identity. Any failure yields Anonymous.
func (g *Gate) Resolve(ctx context.Context, token string) Identity {
	if token == "" {
		return AnonymousIdentity()
	}

	subject, err := g.tokens.ExtractSubject(token)
	if err != nil {
		g.log.Debug("Rejected bearer token", "error", err)
		return AnonymousIdentity()
	}

	user, err := g.users.GetUserByEmail(ctx, subject)
	if err != nil || user == nil {
		g.log.Debug("Token subject did not resolve to a user", "subject", subject, "error", err)
		return AnonymousIdentity()
	}

	if user.Email != subject || !g.tokens.IsTokenValid(token, user.Email) {
		return AnonymousIdentity()
	}
	return AuthenticatedIdentity(user)
}

// RequireAuth aborts with 401 unless the request carries an authenticated
// identity.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch IdentityFrom(c).Kind() {
		case Authenticated:
			c.Next()
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apperr.ErrUnauthenticated.Error()})
		}
	}
}
