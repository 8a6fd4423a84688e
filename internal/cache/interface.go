package cache

import (
	"context"
	"errors"
	"time"

	"github.com/weiawesome/asg-rev/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// MembershipCacheResult caches one membership answer. Found is false for
// cached negative answers; Channel is set for channel lookups.
type MembershipCacheResult struct {
	Found   bool            `json:"found"`
	Channel *domain.Channel `json:"channel,omitempty"`
}

type MembershipCache interface {
	Get(ctx context.Context, key string) (*MembershipCacheResult, error)
	Set(ctx context.Context, key string, result *MembershipCacheResult, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	BuildUserKey(email string) string
	BuildChannelKey(channelID string) string
	BuildMemberKey(channelID, userID string) string
	Close() error
}
