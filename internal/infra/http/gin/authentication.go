package ginserver

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"airbrb/internal/app/services/auth"
	domainauth "airbrb/internal/domain/auth"
)

const principalContextKey = "airbrb.principal"

type principal struct {
	ID        string
	Email     string
	Name      string
	Token     string
	CreatedAt time.Time
}

// TokenResolver is the slice of the auth service the middleware needs.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*auth.Identity, error)
}

// AuthMiddleware attaches the signed in user when a valid bearer token is
// present. Requests without one continue anonymously; handlers decide.
type AuthMiddleware struct {
	Service TokenResolver
	Logger  *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Service == nil {
		c.Next()
		return
	}
	resolved, err := m.Service.ResolveToken(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, domainauth.ErrSessionNotFound) && m.Logger != nil {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.Next()
		return
	}
	user := resolved.User
	c.Set(principalContextKey, principal{
		ID:        string(user.ID),
		Email:     user.Email,
		Name:      user.Name,
		Token:     token,
		CreatedAt: user.CreatedAt,
	})
	c.Next()
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	return p, ok
}

// viewerID is the signed in user's ID or "" for anonymous requests.
func viewerID(c *gin.Context) string {
	p, _ := currentPrincipal(c)
	return p.ID
}

func extractBearerToken(header string) string {
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
