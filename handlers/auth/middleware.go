package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chak-property-server/utils"
)

// ServiceAuthMiddleware guards the admin surface with the dashboard's service
// token. The webhook endpoints are deliberately unauthenticated: the gateway
// signs nothing and reconciliation relies on the correlation id.
func ServiceAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is missing"})
			c.Abort()
			return
		}

		if err := utils.VerifyServiceToken(authHeader); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		c.Next()
	}
}
