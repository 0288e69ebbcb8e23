package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/infigaming-com/events-handler/util"
)

const CorrelationIdHeader = "X-Correlation-Id"

// CorrelationIdMiddleware tags every request with a correlation id.
// An id supplied by the caller is reused so ids stay stable across
// service hops; otherwise one is generated.
func CorrelationIdMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationId := c.GetHeader(CorrelationIdHeader)
		if correlationId == "" {
			correlationId = uuid.New().String()
		}
		c.Header(CorrelationIdHeader, correlationId)
		c.Request = c.Request.WithContext(util.CorrelationIdToCtx(c.Request.Context(), correlationId))
		c.Next()
	}
}
