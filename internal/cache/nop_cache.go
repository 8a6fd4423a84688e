package cache

import (
	"context"
	"fmt"
	"time"
)

// NopMembershipCache always misses. Used when Redis is disabled.
type NopMembershipCache struct{}

func (NopMembershipCache) Get(ctx context.Context, key string) (*MembershipCacheResult, error) {
	return nil, ErrCacheMiss
}

func (NopMembershipCache) Set(ctx context.Context, key string, result *MembershipCacheResult, ttl time.Duration) error {
	return nil
}

func (NopMembershipCache) Delete(ctx context.Context, keys ...string) error {
	return nil
}

func (NopMembershipCache) BuildUserKey(email string) string {
	return fmt.Sprintf("user:%s", email)
}

func (NopMembershipCache) BuildChannelKey(channelID string) string {
	return fmt.Sprintf("channel:%s", channelID)
}

func (NopMembershipCache) BuildMemberKey(channelID, userID string) string {
	return fmt.Sprintf("member:%s:%s", channelID, userID)
}

func (NopMembershipCache) Close() error {
	return nil
}
