package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"rise_local_back_end/internal/cache"
	"rise_local_back_end/internal/utils"
)

// AuthRequired validates the bearer token and exposes its claims as
// user_id, email, role, vendor_id, token_id and token_exp.
func AuthRequired(secret string, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := bearerClaims(c, secret)
		if !ok {
			abort(c, http.StatusUnauthorized, "authentication required", "unauthenticated")
			return
		}
		if cache.IsTokenBlacklisted(c.Request.Context(), rdb, claims.ID) {
			log.Warn().Str("user_id", claims.UserID).Msg("⛔ Revoked token used")
			abort(c, http.StatusUnauthorized, "token revoked", "unauthenticated")
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth sets the claims when a valid token is sent and lets
// anonymous requests through.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := bearerClaims(c, secret); ok {
			setClaims(c, claims)
		}
		c.Next()
	}
}

func bearerClaims(c *gin.Context, secret string) (*utils.Claims, bool) {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return nil, false
	}
	claims, err := utils.ParseJWT(parts[1], secret)
	if err != nil {
		log.Debug().Err(err).Msg("🔐 Bearer token rejected")
		return nil, false
	}
	return claims, true
}

func setClaims(c *gin.Context, claims *utils.Claims) {
	c.Set("user_id", claims.UserID)
	c.Set("email", claims.Email)
	c.Set("role", claims.Role)
	c.Set("vendor_id", claims.VendorID)
	c.Set("token_id", claims.ID)
	if claims.ExpiresAt != nil {
		c.Set("token_exp", claims.ExpiresAt.Time)
	} else {
		c.Set("token_exp", time.Time{})
	}
}

func abort(c *gin.Context, status int, msg, code string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "code": code})
}
