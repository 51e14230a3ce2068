package middleware

import (
	"math"
	"strconv"
	"time"

	"example.com/backstage/services/inventory/api/apierr"
	"example.com/backstage/services/inventory/internal/metrics"
	"example.com/backstage/services/inventory/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RateLimit enforces rule per client IP. Limiter failures let the request through.
func RateLimit(limiter ratelimit.Limiter, rule ratelimit.Rule, collector *metrics.Collector, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := ClientIP(c)
		decision, err := limiter.Allow(c.Request.Context(), rule.Key(client), rule.Limit, rule.Window)
		if err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"scope":     rule.Scope,
				"client_ip": client,
			}).Error("Rate limiter unavailable, allowing request")
			collector.RecordError(metrics.ErrorTypeRateLimiter)
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			retryAfter := int(math.Ceil(decision.RetryAfter(time.Now()).Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			h.Set("Retry-After", strconv.Itoa(retryAfter))

			log.WithFields(logrus.Fields{
				"scope":       rule.Scope,
				"client_ip":   client,
				"retry_after": retryAfter,
			}).Warn("Rate limit exceeded")
			collector.IncrementCounter(metrics.CounterRateLimited, 1)

			apierr.Write(c, log, apierr.ErrTooManyRequests)
			return
		}

		c.Next()
	}
}
