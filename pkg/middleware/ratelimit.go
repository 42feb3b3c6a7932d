package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// RateLimit 基于 Redis 的按用户写请求限流；限流器故障时放行
func RateLimit(rdb *redis.Client, requestsPerMinute int) gin.HandlerFunc {
	limiter := redis_rate.NewLimiter(rdb)

	return func(c *gin.Context) {
		if requestsPerMinute <= 0 {
			c.Next()
			return
		}

		subject := UserID(c)
		if subject == "" {
			subject = c.ClientIP()
		}
		key := fmt.Sprintf("ratelimit:%s", subject)

		res, err := limiter.Allow(c.Request.Context(), key, redis_rate.Limit{
			Rate:   requestsPerMinute,
			Period: time.Minute,
			Burst:  requestsPerMinute,
		})
		if err != nil {
			c.Next()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if res.Allowed <= 0 {
			c.Header("Retry-After", strconv.FormatInt(int64(res.RetryAfter/time.Second), 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "too many requests",
			})
			return
		}

		c.Next()
	}
}
