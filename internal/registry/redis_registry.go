package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/weiawesome/asg-rev/internal/config"
	"github.com/weiawesome/asg-rev/pkg/log"
)

// RedisRegistry stores one key per connection, valued with the user id and
// kept alive by a heartbeat. Keys of crashed instances expire on their own.
type RedisRegistry struct {
	client            *redis.Client
	prefix            string
	keyTTL            time.Duration
	heartbeatInterval time.Duration
	managedKeys       map[string]string // key -> userID, owned by this instance
	mu                sync.RWMutex
	cancel            context.CancelFunc
}

func NewRedisRegistry(redisCfg config.RedisConfig, cfg config.PresenceConfig) (*RedisRegistry, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Address,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisRegistryFromClient(client, cfg), nil
}

// NewRedisRegistryFromClient wraps an existing client.
func NewRedisRegistryFromClient(client *redis.Client, cfg config.PresenceConfig) *RedisRegistry {
	return &RedisRegistry{
		client:            client,
		prefix:            cfg.Prefix,
		keyTTL:            cfg.KeyTTL,
		heartbeatInterval: cfg.HeartbeatInterval,
		managedKeys:       make(map[string]string),
	}
}

func (r *RedisRegistry) roomPattern(roomKey string) string {
	return fmt.Sprintf("%s:room:%s:client:*", r.prefix, roomKey)
}

func (r *RedisRegistry) keyFor(roomKey, clientID string) string {
	return fmt.Sprintf("%s:room:%s:client:%s", r.prefix, roomKey, clientID)
}

func (r *RedisRegistry) Register(ctx context.Context, roomKey, clientID, userID string) error {
	key := r.keyFor(roomKey, clientID)

	if err := r.client.Set(ctx, key, userID, r.keyTTL).Err(); err != nil {
		return fmt.Errorf("failed to register presence: %w", err)
	}

	r.mu.Lock()
	r.managedKeys[key] = userID
	r.mu.Unlock()

	l := log.L()
	l.Debug().Str(log.FieldRoomKey, roomKey).Str(log.FieldClientID, clientID).Str(log.FieldUserID, userID).Msg("registered presence")
	return nil
}

func (r *RedisRegistry) Deregister(ctx context.Context, roomKey, clientID string) error {
	key := r.keyFor(roomKey, clientID)

	r.mu.Lock()
	delete(r.managedKeys, key)
	r.mu.Unlock()

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to deregister presence: %w", err)
	}

	l := log.L()
	l.Debug().Str(log.FieldRoomKey, roomKey).Str(log.FieldClientID, clientID).Msg("deregistered presence")
	return nil
}

// Online returns the distinct user ids connected to roomKey on any instance.
func (r *RedisRegistry) Online(ctx context.Context, roomKey string) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.roomPattern(roomKey), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan presence: %w", err)
	}
	if len(keys) == 0 {
		return []string{}, nil
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read presence: %w", err)
	}

	seen := make(map[string]struct{}, len(values))
	users := make([]string, 0, len(values))
	for _, v := range values {
		userID, ok := v.(string)
		if !ok || userID == "" {
			continue // expired between SCAN and MGET
		}
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		users = append(users, userID)
	}
	sort.Strings(users)
	return users, nil
}

func (r *RedisRegistry) StartHeartbeat(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	go r.heartbeatLoop(ctx)
	l := log.L()
	l.Info().Dur("interval", r.heartbeatInterval).Dur("ttl", r.keyTTL).Msg("presence heartbeat started")
	return nil
}

func (r *RedisRegistry) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(r.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refreshKeys(ctx)
		}
	}
}

func (r *RedisRegistry) refreshKeys(ctx context.Context) {
	r.mu.RLock()
	keys := make(map[string]string, len(r.managedKeys))
	for k, v := range r.managedKeys {
		keys[k] = v
	}
	r.mu.RUnlock()

	if len(keys) == 0 {
		return
	}

	pipe := r.client.Pipeline()
	for key, userID := range keys {
		pipe.Set(ctx, key, userID, r.keyTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		l := log.L()
		l.Error().Err(err).Int("keys", len(keys)).Msg("failed to refresh presence keys")
	}
}

func (r *RedisRegistry) StopHeartbeat() {
	if r.cancel != nil {
		r.cancel()
	}
}

// Close removes this instance's keys and closes the client.
func (r *RedisRegistry) Close() error {
	r.StopHeartbeat()

	r.mu.Lock()
	keys := make([]string, 0, len(r.managedKeys))
	for k := range r.managedKeys {
		keys = append(keys, k)
	}
	r.managedKeys = make(map[string]string)
	r.mu.Unlock()

	if len(keys) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			l := log.L()
			l.Warn().Err(err).Msg("failed to remove presence keys on close")
		}
	}
	return r.client.Close()
}
