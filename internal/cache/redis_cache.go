package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/weiawesome/asg-rev/internal/config"
)

type RedisMembershipCache struct {
	client *redis.Client
	prefix string
}

func NewRedisMembershipCache(cfg config.RedisConfig, prefix string) (*RedisMembershipCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisMembershipCacheFromClient(client, prefix), nil
}

// NewRedisMembershipCacheFromClient wraps an existing client.
func NewRedisMembershipCacheFromClient(client *redis.Client, prefix string) *RedisMembershipCache {
	return &RedisMembershipCache{
		client: client,
		prefix: prefix,
	}
}

func (c *RedisMembershipCache) BuildUserKey(email string) string {
	return fmt.Sprintf("%s:user:%s", c.prefix, email)
}

func (c *RedisMembershipCache) BuildChannelKey(channelID string) string {
	return fmt.Sprintf("%s:channel:%s", c.prefix, channelID)
}

func (c *RedisMembershipCache) BuildMemberKey(channelID, userID string) string {
	return fmt.Sprintf("%s:member:%s:%s", c.prefix, channelID, userID)
}

func (c *RedisMembershipCache) Get(ctx context.Context, key string) (*MembershipCacheResult, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var result MembershipCacheResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}

	return &result, nil
}

func (c *RedisMembershipCache) Set(ctx context.Context, key string, result *MembershipCacheResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}

	return nil
}

func (c *RedisMembershipCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}

	return nil
}

func (c *RedisMembershipCache) Close() error {
	return c.client.Close()
}
