package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/matricula/matricula/internal/response"
	"github.com/matricula/matricula/internal/service"
)

const (
	// ContextKeyClaims is the Gin context key for JWT claims.
	ContextKeyClaims = "claims"

	// WSPathPrefix is where the query-string token is honored.
	WSPathPrefix = "/ws/"
)

// RequireJWT validates an operator JWT from the Authorization header.
// The ?token= query parameter is accepted only under WSPathPrefix, since
// browsers cannot set headers on WebSocket upgrades.
func RequireJWT(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractToken(c)
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		claims, err := authService.ValidateToken(tokenStr)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// GetClaims retrieves the JWT claims from the Gin context.
func GetClaims(c *gin.Context) *service.Claims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*service.Claims)
	if !ok {
		return nil
	}
	return claims
}

// MustUserID returns the authenticated user ID, or 0 when unauthenticated.
func MustUserID(c *gin.Context) int {
	if claims := GetClaims(c); claims != nil {
		return claims.UserID
	}
	return 0
}

func extractToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if strings.HasPrefix(c.Request.URL.Path, WSPathPrefix) {
		return c.Query("token")
	}
	return ""
}

// BearerHeader formats a token for the Authorization header.
func BearerHeader(token string) string {
	return fmt.Sprintf("Bearer %s", token)
}
