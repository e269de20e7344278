package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequirePermission returns middleware that allows the request through only
// when the aggregated permission set attached by Protect contains the exact
// code. Must run after Protect. Compose multiple requirements by chaining
// one gate per code.
func RequirePermission(code string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if !user.HasPermission(code) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
