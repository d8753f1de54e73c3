package cart

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"rise_local_back_end/internal/models"
)

const TTL = 30 * 24 * time.Hour

// RedisRepository stores each cart as one JSON blob under cart:<userID>
// and announces changes on the channel of the same name.
type RedisRepository struct {
	rdb *redis.Client
}

func NewRedisRepository(rdb *redis.Client) *RedisRepository {
	return &RedisRepository{rdb: rdb}
}

func Key(userID string) string {
	return "cart:" + userID
}

func (r *RedisRepository) Load(ctx context.Context, userID string) (*Cart, error) {
	data, err := r.rdb.Get(ctx, Key(userID)).Bytes()
	if err == redis.Nil {
		return New(userID), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	return decode(userID, data)
}

func (r *RedisRepository) Save(ctx context.Context, c *Cart) error {
	data, err := encode(c)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, Key(c.UserID), data, TTL).Err(); err != nil {
		return errors.Wrap(err, "save cart")
	}
	r.rdb.Publish(ctx, Key(c.UserID), "updated")
	return nil
}

func (r *RedisRepository) Clear(ctx context.Context, userID string) error {
	if err := r.rdb.Del(ctx, Key(userID)).Err(); err != nil {
		return errors.Wrap(err, "clear cart")
	}
	r.rdb.Publish(ctx, Key(userID), "cleared")
	return nil
}

func encode(c *Cart) ([]byte, error) {
	data, err := json.Marshal(c.Items)
	return data, errors.Wrap(err, "encode cart")
}

func decode(userID string, data []byte) (*Cart, error) {
	var items []models.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, errors.Wrap(err, "decode cart")
	}
	if items == nil {
		items = []models.CartItem{}
	}
	return &Cart{UserID: userID, Items: items}, nil
}
