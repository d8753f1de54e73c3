package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"rise_local_back_end/internal/cache"
)

const (
	LoginMaxAttempts    = 5
	RegisterMaxAttempts = 3
	APIMaxRequests      = 100
	SearchMaxRequests   = 30
	CartMaxRequests     = 20

	LoginCooldown    = 15 * time.Minute
	RegisterCooldown = 30 * time.Minute
	APICooldown      = time.Minute
)

// KeyFunc picks the bucket a request counts against. An empty key skips
// limiting for that request.
type KeyFunc func(c *gin.Context) string

func ByIP(c *gin.Context) string { return c.ClientIP() }

func ByUser(c *gin.Context) string { return c.GetString("user_id") }

// ByVendor counts per vendor, falling back to the staff user.
func ByVendor(c *gin.Context) string {
	if v := c.GetString("vendor_id"); v != "" {
		return v
	}
	return c.GetString("user_id")
}

// ByEmail reads the email field of a JSON body and restores the body.
func ByEmail(c *gin.Context) string {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
	var input struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(body, &input) != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(input.Email))
}

// RateLimit allows limit requests per fixed window per key. Without Redis
// every request passes.
func RateLimit(rdb *redis.Client, name string, limit int, window time.Duration, key KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}
		k := key(c)
		if k == "" {
			c.Next()
			return
		}
		redisKey := fmt.Sprintf("rate:%s:%s", name, k)
		n, err := cache.IncrementRateLimit(c.Request.Context(), rdb, redisKey, window)
		if err != nil {
			log.Warn().Err(err).Str("limiter", name).Msg("⚠️ Rate limiter unavailable")
			c.Next()
			return
		}

		remaining := int64(limit) - n
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if n > int64(limit) {
			retry := cache.RateLimitTTL(c.Request.Context(), rdb, redisKey)
			log.Warn().Str("limiter", name).Str("key", k).Int64("count", n).Msg("🚦 Rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many requests, try again later",
				"code":        "rate_limited",
				"retry_after": int(retry.Seconds()),
			})
			return
		}
		c.Next()
	}
}

func APIRateLimit(rdb *redis.Client) gin.HandlerFunc {
	return RateLimit(rdb, "api", APIMaxRequests, APICooldown, ByIP)
}

func LoginRateLimit(rdb *redis.Client) gin.HandlerFunc {
	return RateLimit(rdb, "login", LoginMaxAttempts, LoginCooldown, ByEmail)
}

func RegisterRateLimit(rdb *redis.Client) gin.HandlerFunc {
	return RateLimit(rdb, "register", RegisterMaxAttempts, RegisterCooldown, ByIP)
}

func SearchRateLimit(rdb *redis.Client) gin.HandlerFunc {
	return RateLimit(rdb, "search", SearchMaxRequests, time.Minute, ByIP)
}

func CartRateLimit(rdb *redis.Client) gin.HandlerFunc {
	return RateLimit(rdb, "cart", CartMaxRequests, time.Minute, ByUser)
}

// VerifyRateLimit caps vendor code verification attempts, which are the
// only way to probe the 6-digit code space.
func VerifyRateLimit(rdb *redis.Client, attempts int, window time.Duration) gin.HandlerFunc {
	return RateLimit(rdb, "verify", attempts, window, ByVendor)
}
