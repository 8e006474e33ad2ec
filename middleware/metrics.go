package middleware

import (
	"strconv"
	"time"

	"rag-chat-platform/internal/telemetry"

	"github.com/gin-gonic/gin"
)

// MetricsMiddleware records request count and latency per route. Unmatched
// paths share one label so scanners cannot blow up cardinality.
func MetricsMiddleware(metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}
