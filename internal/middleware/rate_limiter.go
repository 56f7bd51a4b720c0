package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Baaaki/newsletter-app/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimiterConfig defines rate limiting rules
type RateLimiterConfig struct {
	Scope       string        // Key namespace, e.g. "auth" or "write"
	MaxRequests int           // Maximum requests allowed in the window
	Window      time.Duration // Time window (e.g., 1 minute)
}

// RateLimiter counts requests per client in fixed Redis windows.
// Authenticated requests are keyed by user id, anonymous ones by IP.
type RateLimiter struct {
	redis  *redis.Client
	config RateLimiterConfig
}

func NewRateLimiter(redisClient *redis.Client, config RateLimiterConfig) *RateLimiter {
	if config.Scope == "" {
		config.Scope = "global"
	}
	return &RateLimiter{
		redis:  redisClient,
		config: config,
	}
}

// Middleware returns a Gin middleware function for rate limiting
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		client := "ip:" + c.ClientIP()
		if userID := c.GetString("user_id"); userID != "" {
			client = "user:" + userID
		}

		allowed, retryAfter, err := rl.CheckLimit(c.Request.Context(), client)
		if err != nil {
			// Fail open: a Redis outage must not take the API down
			logger.Log.Warn("Rate limiter unavailable",
				zap.String("scope", rl.config.Scope),
				zap.Error(err),
			)
			c.Next()
			return
		}

		if !allowed {
			seconds := int(retryAfter.Seconds())
			c.Header("Retry-After", fmt.Sprintf("%d", seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":     false,
				"error":       "Too many requests. Please try again later.",
				"retry_after": seconds,
			})
			return
		}

		c.Next()
	}
}

// CheckLimit increments the client's counter for the current window.
// Returns: (allowed bool, retryAfter duration, error)
func (rl *RateLimiter) CheckLimit(ctx context.Context, client string) (bool, time.Duration, error) {
	key := fmt.Sprintf("ratelimit:%s:%s", rl.config.Scope, client)

	// INCR and EXPIRE form a fixed window counter
	count, err := rl.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}

	// Set expiry on first request (count = 1)
	if count == 1 {
		if err := rl.redis.Expire(ctx, key, rl.config.Window).Err(); err != nil {
			return false, 0, err
		}
	}

	if count > int64(rl.config.MaxRequests) {
		ttl, err := rl.redis.TTL(ctx, key).Result()
		if err != nil || ttl <= 0 {
			ttl = rl.config.Window
		}
		return false, ttl, nil
	}

	return true, 0, nil
}
