package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matricula/matricula/internal/response"
	"github.com/matricula/matricula/internal/service"
)

// CheckSession validates the JWT's JTI against the session registry in Redis.
// If the JTI is gone, the request is rejected (the operator logged out).
func CheckSession(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if err := authService.ValidateSession(c.Request.Context(), claims); err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
			return
		}

		c.Next()
	}
}
