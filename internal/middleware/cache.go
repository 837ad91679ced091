package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoStore forbids caching of responses, used on routes that return tokens
// or per-operator data.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}
