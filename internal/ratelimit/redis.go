package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis shares the cooldown across instances with SET NX PX.
type Redis struct {
	client   *redis.Client
	prefix   string
	cooldown time.Duration
}

func NewRedis(client *redis.Client, prefix string, cooldown time.Duration) *Redis {
	if prefix == "" {
		prefix = "v4ult:ratelimit:"
	}
	return &Redis{client: client, prefix: prefix, cooldown: cooldown}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.prefix+key, 1, r.cooldown).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}
