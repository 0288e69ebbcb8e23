package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/infigaming-com/events-handler/util"
)

// CorsMiddleware handles cross-origin requests using the configured
// origin allow list.
func CorsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	validate := util.MakeAllowedOriginValidator(allowedOrigins)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && validate(origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Slack-Signature, X-Slack-Request-Timestamp")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
