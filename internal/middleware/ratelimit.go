package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/folio-space/core/internal/pkg/response"
)

// RateLimitOptions bounds requests per client IP within a fixed window.
type RateLimitOptions struct {
	Name   string
	Max    int64
	Window time.Duration
}

// RateLimit enforces a fixed-window limit per IP using Redis counters.
// Authenticated requests are not limited. Redis failures let the request through.
func RateLimit(rdb *redis.Client, opts RateLimitOptions) gin.HandlerFunc {
	if opts.Window <= 0 {
		opts.Window = time.Second
	}
	if opts.Max <= 0 {
		opts.Max = 50
	}
	if opts.Name == "" {
		opts.Name = "global"
	}
	return func(c *gin.Context) {
		if rdb == nil || IsAuthenticated(c) {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		window := time.Now().UnixNano() / int64(opts.Window)
		key := fmt.Sprintf("folio:rate_limit:%s:%s:%d", opts.Name, ip, window)

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}
		if count == 1 {
			rdb.PExpire(ctx, key, opts.Window+time.Second)
		}

		if count > opts.Max {
			c.Header("Retry-After", strconv.Itoa(int(opts.Window.Seconds())+1))
			response.TooManyRequests(c)
			return
		}
		c.Next()
	}
}
