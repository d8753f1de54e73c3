package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// --- Rate limiting ---

// IncrementRateLimit counts one hit in the fixed window that starts with
// the first hit on key.
func IncrementRateLimit(ctx context.Context, rdb *redis.Client, key string, window time.Duration) (int64, error) {
	pipe := rdb.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func RateLimitTTL(ctx context.Context, rdb *redis.Client, key string) time.Duration {
	ttl, err := rdb.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		return 0
	}
	return ttl
}

// --- JWT blacklist (revocation before expiry) ---

func BlacklistToken(ctx context.Context, rdb *redis.Client, tokenID string, ttl time.Duration) error {
	if rdb == nil || tokenID == "" || ttl <= 0 {
		return nil
	}
	return rdb.Set(ctx, fmt.Sprintf("blacklist:%s", tokenID), "revoked", ttl).Err()
}

func IsTokenBlacklisted(ctx context.Context, rdb *redis.Client, tokenID string) bool {
	if rdb == nil || tokenID == "" {
		return false
	}
	exists, err := rdb.Exists(ctx, fmt.Sprintf("blacklist:%s", tokenID)).Result()
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ Blacklist lookup failed")
		return false
	}
	return exists > 0
}
