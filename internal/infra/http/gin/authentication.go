package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"github.com/AntoS03/ProyectoFinal/internal/app/handlers/support"
	"github.com/AntoS03/ProyectoFinal/internal/app/services/auth"
	"github.com/AntoS03/ProyectoFinal/internal/domain/user"
)

const principalContextKey = "reservations.principal"

type principal struct {
	User  *user.User
	Token string
}

func (p principal) actor() support.Actor {
	return support.Actor{UserID: string(p.User.ID), Role: p.User.Role}
}

// AuthMiddleware resolves a bearer token into a principal. Requests without a
// valid token continue anonymously; handlers that need a caller reject them.
type AuthMiddleware struct {
	Service *auth.Service
	Logger  *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Service == nil {
		c.Next()
		return
	}
	u, err := m.Service.ResolveToken(c.Request.Context(), token)
	if err != nil {
		if m.Logger != nil {
			m.Logger.DebugContext(c.Request.Context(), "token validation failed", "error", err)
		}
		c.Next()
		return
	}
	c.Set(principalContextKey, principal{User: u, Token: token})
	c.Next()
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	return p, ok && p.User != nil
}

// actorFrom returns the caller, or an anonymous actor.
func actorFrom(c *gin.Context) support.Actor {
	if p, ok := currentPrincipal(c); ok {
		return p.actor()
	}
	return support.Actor{}
}

func requireAuth(c *gin.Context) (support.Actor, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return support.Actor{}, false
	}
	return p.actor(), true
}

func extractBearerToken(header string) string {
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
