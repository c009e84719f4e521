package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ecoloop/internal/apperr"
	"ecoloop/internal/models"
	"ecoloop/internal/services"
)

const (
	UserIDKey = "userId"
	RoleKey   = "role"
)

// TokenParser verifies a bearer token.
type TokenParser interface {
	ParseToken(token string) (services.Identity, error)
}

func abortWith(c *gin.Context, status int, kind apperr.Kind, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": kind, "message": message})
}

// LoadIdentity reads an optional "Authorization: Bearer <token>" header and
// stores the identity it carries on the context. A malformed or invalid
// token is rejected even on public routes.
func LoadIdentity(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip CORS preflight
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortWith(c, http.StatusUnauthorized, apperr.KindUnauthorized, "format should be: Bearer <token>")
			return
		}
		id, err := parser.ParseToken(parts[1])
		if err != nil {
			abortWith(c, http.StatusUnauthorized, apperr.KindUnauthorized, apperr.MessageOf(err))
			return
		}
		c.Set(UserIDKey, id.UserID)
		c.Set(RoleKey, id.Role)
		c.Next()
	}
}

// AuthRequired ensures a user is logged in
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(UserIDKey) == "" {
			abortWith(c, http.StatusUnauthorized, apperr.KindUnauthorized, "authentication required")
			return
		}
		c.Next()
	}
}

// AdminRequired must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(RoleKey) != models.RoleAdmin {
			abortWith(c, http.StatusForbidden, apperr.KindForbidden, "admin role required")
			return
		}
		c.Next()
	}
}

// CurrentIdentity returns the caller, or the zero Identity for anonymous
// requests.
func CurrentIdentity(c *gin.Context) services.Identity {
	return services.Identity{UserID: c.GetString(UserIDKey), Role: c.GetString(RoleKey)}
}
