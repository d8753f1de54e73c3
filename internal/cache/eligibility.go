package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"rise_local_back_end/internal/redemption"
)

// EligibilityCache stores can-redeem answers in Redis. Each user has an
// index set of their keys so a single write can drop all of them.
type EligibilityCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewEligibilityCache(rdb *redis.Client, ttl time.Duration) *EligibilityCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &EligibilityCache{rdb: rdb, ttl: ttl}
}

func eligibilityKey(userID, dealID string) string {
	return "can_redeem:" + userID + ":" + dealID
}

func eligibilityIndexKey(userID string) string {
	return "can_redeem_keys:" + userID
}

func (c *EligibilityCache) GetEligibility(ctx context.Context, userID, dealID string) (redemption.Eligibility, bool) {
	var e redemption.Eligibility
	data, err := c.rdb.Get(ctx, eligibilityKey(userID, dealID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Msg("⚠️ Eligibility cache read failed")
		}
		return e, false
	}
	if err := json.Unmarshal(data, &e); err != nil {
		return e, false
	}
	return e, true
}

func (c *EligibilityCache) SetEligibility(ctx context.Context, userID, dealID string, e redemption.Eligibility) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	key := eligibilityKey(userID, dealID)
	index := eligibilityIndexKey(userID)

	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, key, data, c.ttl)
	pipe.SAdd(ctx, index, key)
	pipe.Expire(ctx, index, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Msg("⚠️ Eligibility cache write failed")
	}
}

func (c *EligibilityCache) InvalidateUser(ctx context.Context, userID string) {
	index := eligibilityIndexKey(userID)
	keys, err := c.rdb.SMembers(ctx, index).Result()
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("⚠️ Eligibility cache invalidation failed")
		return
	}
	if err := c.rdb.Del(ctx, append(keys, index)...).Err(); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("⚠️ Eligibility cache invalidation failed")
	}
}
