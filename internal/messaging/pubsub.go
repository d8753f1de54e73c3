package messaging

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"rise_local_back_end/internal/models"
)

func UserChannel(userID string) string {
	return "messages:user:" + userID
}

func VendorChannel(vendorID string) string {
	return "messages:vendor:" + vendorID
}

type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, m *models.Message) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "encode message")
	}
	return errors.Wrap(p.rdb.Publish(ctx, channel, payload).Err(), "publish message")
}

// Subscribe opens the live channels of a participant: their own user
// channel, plus the vendor channel for staff.
func Subscribe(ctx context.Context, rdb *redis.Client, p Participant) *redis.PubSub {
	channels := []string{UserChannel(p.UserID)}
	if p.VendorID != "" {
		channels = append(channels, VendorChannel(p.VendorID))
	}
	return rdb.Subscribe(ctx, channels...)
}
