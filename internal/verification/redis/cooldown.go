package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const cooldownPrefix = "verification_cooldown:"

// Cooldown keeps one resend slot per phone in Redis.
type Cooldown struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewCooldown(client *redis.Client, ttl time.Duration) *Cooldown {
	return &Cooldown{Client: client, TTL: ttl}
}

// Acquire claims the resend slot for phone. When it is already held the
// remaining wait is returned with ok=false. A non-positive TTL disables the cooldown.
func (c *Cooldown) Acquire(ctx context.Context, phone string) (bool, time.Duration, error) {
	if c.TTL <= 0 {
		return true, 0, nil
	}
	key := cooldownPrefix + phone
	ok, err := c.Client.SetNX(ctx, key, time.Now().Unix(), c.TTL).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if ok {
		return true, 0, nil
	}
	ttl, err := c.Client.TTL(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis ttl %s: %w", key, err)
	}
	if ttl < 0 {
		ttl = c.TTL
	}
	return false, ttl, nil
}

// Release frees the slot after a send that never reached the customer.
func (c *Cooldown) Release(ctx context.Context, phone string) error {
	err := c.Client.Del(ctx, cooldownPrefix+phone).Err()
	if err == redis.Nil {
		return nil
	}
	return err
}
