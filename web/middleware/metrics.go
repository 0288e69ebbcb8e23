package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/infigaming-com/events-handler/observability/metrics"
)

// MetricsMiddleware records a duration sample per request. A nil
// recorder disables recording.
func MetricsMiddleware(recorder *metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		recorder.RequestObserved(c.Request.Context(), c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
