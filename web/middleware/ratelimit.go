package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/yamdb/api-yamdb/logger"
	"github.com/yamdb/api-yamdb/util/metrics"
)

// RateLimitConfig configures a fixed-window limiter.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	KeyFunc  func(c *gin.Context) string
}

// DefaultRateLimitConfig limits each client address to n requests a minute.
func DefaultRateLimitConfig(n int) RateLimitConfig {
	return RateLimitConfig{
		Requests: n,
		Window:   time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	}
}

// RateLimit counts requests per key and route in Redis. A Redis failure
// lets the request through.
func RateLimit(client *redis.Client, config RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.Requests <= 0 {
			c.Next()
			return
		}
		route := c.FullPath()
		key := "ratelimit:" + config.KeyFunc(c) + ":" + route
		ctx := c.Request.Context()

		var incr *redis.IntCmd
		var ttl *redis.DurationCmd
		_, err := client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			ttl = pipe.PTTL(ctx, key)
			return nil
		})
		if err != nil {
			logger.Warning("rate limit counter failed: ", err)
			c.Next()
			return
		}

		count := incr.Val()
		remaining := ttl.Val()
		if count == 1 || remaining < 0 {
			if err := client.PExpire(ctx, key, config.Window).Err(); err != nil {
				logger.Warning("rate limit expire failed: ", err)
			}
			remaining = config.Window
		}

		left := int64(config.Requests) - count
		if left < 0 {
			left = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Requests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(left, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(remaining).Unix(), 10))

		if count > int64(config.Requests) {
			logger.Warningf("rate limit exceeded for %s on %s (count: %d)", config.KeyFunc(c), route, count)
			metrics.RateLimitHits.WithLabelValues(route).Inc()
			c.Header("Retry-After", strconv.Itoa(int(remaining.Round(time.Second)/time.Second)))
			abort(c, http.StatusTooManyRequests, "errRateLimited")
			return
		}
		c.Next()
	}
}
