package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/posko-pajak/api-go/metrics"
)

// Metrics records request latency keyed by the matched route template so ids
// never leak into label values.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDurationSeconds.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
