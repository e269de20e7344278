package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig holds fixed-window rate limit settings.
type RateLimitConfig struct {
	RequestsPerWindow int
	WindowDuration    time.Duration
}

// LoginRateLimiter limits attempts per client IP using a Redis fixed
// window, so the limit holds across service instances. A Redis outage
// fails open.
type LoginRateLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
	logger *zap.Logger
	prefix string
}

// NewLoginRateLimiter creates a Redis-backed login rate limiter.
func NewLoginRateLimiter(redisClient *redis.Client, config RateLimitConfig, logger *zap.Logger) *LoginRateLimiter {
	return &LoginRateLimiter{
		redis:  redisClient,
		config: config,
		logger: logger,
		prefix: "login_attempts",
	}
}

// Handler returns the gin middleware enforcing the limit.
func (rl *LoginRateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:%s", rl.prefix, c.ClientIP())
		ctx := c.Request.Context()

		pipe := rl.redis.Pipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, rl.config.WindowDuration)
		if _, err := pipe.Exec(ctx); err != nil {
			rl.logger.Warn("login rate limiter unavailable, allowing request", zap.Error(err))
			c.Next()
			return
		}

		if incr.Val() > int64(rl.config.RequestsPerWindow) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts"})
			return
		}

		c.Next()
	}
}
