package auth

import (
	"context"

	"textbookexchange/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// Kind tags the variant held by an Identity.
type Kind int

const (
	Anonymous Kind = iota
	Authenticated
)

func (k Kind) String() string {
	switch k {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Identity is either Anonymous or Authenticated(user). It lives in the
// request scope only.
type Identity struct {
	kind Kind
	user *models.User
}

func AnonymousIdentity() Identity {
	return Identity{kind: Anonymous}
}

func AuthenticatedIdentity(user *models.User) Identity {
	if user == nil {
		return AnonymousIdentity()
	}
	return Identity{kind: Authenticated, user: user}
}

func (i Identity) Kind() Kind { return i.kind }

// User returns the authenticated user, or false for Anonymous.
func (i Identity) User() (*models.User, bool) {
	switch i.kind {
	case Authenticated:
		return i.user, true
	case Anonymous:
		return nil, false
	default:
		return nil, false
	}
}

type contextKey struct{}

// identityKey is the gin context key holding the Identity.
const identityKey = "auth.identity"

// WithIdentity returns a child context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the Identity carried by ctx, Anonymous if none.
func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(contextKey{}).(Identity); ok {
		return id
	}
	return AnonymousIdentity()
}

// IdentityFrom returns the Identity attached to the current request.
func IdentityFrom(c *gin.Context) Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(Identity); ok {
			return id
		}
	}
	return FromContext(c.Request.Context())
}

func setIdentity(c *gin.Context, id Identity) {
	c.Set(identityKey, id)
	c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
}
