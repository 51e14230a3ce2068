package middleware

import (
	"time"

	"example.com/backstage/services/inventory/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics records request counts and latency per route
func Metrics(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		collector.RecordHTTPRequest(c.Request.Method+" "+path, c.Writer.Status(), time.Since(start))
	}
}
