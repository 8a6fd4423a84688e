package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/weiawesome/asg-rev/internal/cache"
	"github.com/weiawesome/asg-rev/internal/domain"
	"github.com/weiawesome/asg-rev/internal/repository"
	"github.com/weiawesome/asg-rev/pkg/log"
)

type membershipAuthority struct {
	repo     repository.MembershipRepository
	cache    cache.MembershipCache
	cacheTTL time.Duration
	sf       singleflight.Group
}

// NewMembershipAuthority answers membership questions from the database,
// with positive and negative answers cached for cacheTTL.
func NewMembershipAuthority(
	repo repository.MembershipRepository,
	membershipCache cache.MembershipCache,
	cacheTTL time.Duration,
) MembershipAuthority {
	return &membershipAuthority{
		repo:     repo,
		cache:    membershipCache,
		cacheTTL: cacheTTL,
	}
}

func (a *membershipAuthority) UserExists(ctx context.Context, identity domain.Identity) (bool, error) {
	if identity.Email == "" {
		return false, nil
	}

	result, err := a.lookup(ctx, a.cache.BuildUserKey(identity.Email), func(ctx context.Context) (*cache.MembershipCacheResult, error) {
		exists, err := a.repo.UserExistsByEmail(ctx, identity.Email)
		if err != nil {
			return nil, err
		}
		return &cache.MembershipCacheResult{Found: exists}, nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to look up user: %w", err)
	}
	return result.Found, nil
}

func (a *membershipAuthority) FindChannel(ctx context.Context, channelID string) (*domain.Channel, error) {
	result, err := a.lookup(ctx, a.cache.BuildChannelKey(channelID), func(ctx context.Context) (*cache.MembershipCacheResult, error) {
		ch, err := a.repo.GetChannel(ctx, channelID)
		if errors.Is(err, repository.ErrChannelNotFound) {
			return &cache.MembershipCacheResult{Found: false}, nil
		}
		if err != nil {
			return nil, err
		}
		return &cache.MembershipCacheResult{Found: true, Channel: ch}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to look up channel: %w", err)
	}
	if !result.Found || result.Channel == nil {
		return nil, repository.ErrChannelNotFound
	}
	return result.Channel, nil
}

func (a *membershipAuthority) IsMember(ctx context.Context, channel *domain.Channel, identity domain.Identity) (bool, error) {
	if channel == nil || identity.UserID == "" {
		return false, nil
	}

	result, err := a.lookup(ctx, a.cache.BuildMemberKey(channel.ID, identity.UserID), func(ctx context.Context) (*cache.MembershipCacheResult, error) {
		member, err := a.repo.IsMember(ctx, channel.ID, identity.UserID)
		if err != nil {
			return nil, err
		}
		return &cache.MembershipCacheResult{Found: member}, nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return result.Found, nil
}

// lookup collapses concurrent loads of the same key and consults the cache
// first. Cache failures fall through to load.
func (a *membershipAuthority) lookup(
	ctx context.Context,
	key string,
	load func(ctx context.Context) (*cache.MembershipCacheResult, error),
) (*cache.MembershipCacheResult, error) {
	v, err, _ := a.sf.Do(key, func() (interface{}, error) {
		cached, err := a.cache.Get(ctx, key)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Str("key", key).Msg("cache get error")
		}

		result, err := load(ctx)
		if err != nil {
			return nil, err
		}

		// Store in cache (async to avoid blocking the caller)
		go func() {
			cacheCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := a.cache.Set(cacheCtx, key, result, a.cacheTTL); err != nil {
				l := log.L()
				l.Warn().Err(err).Str("key", key).Msg("cache set error")
			}
		}()

		return result, nil
	})
	if err != nil {
		return nil, err
	}

	result, ok := v.(*cache.MembershipCacheResult)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from singleflight")
	}
	return result, nil
}
