package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/weiawesome/asg-rev/pkg/log"
)

// RedisPubSub implements PubSub on Redis PUBLISH/SUBSCRIBE.
type RedisPubSub struct {
	client        *redis.Client
	subscriptions map[string]*redis.PubSub
	mu            sync.Mutex
}

// NewRedisPubSub connects to Redis and verifies the connection.
func NewRedisPubSub(cfg RedisConfig) (*RedisPubSub, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisPubSub{
		client:        client,
		subscriptions: make(map[string]*redis.PubSub),
	}, nil
}

// Publish publishes an event to the specified channel.
func (r *RedisPubSub) Publish(ctx context.Context, channel string, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := r.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	return nil
}

// Subscribe subscribes to a specific channel.
func (r *RedisPubSub) Subscribe(ctx context.Context, channel string) (<-chan *Event, error) {
	return r.subscribe(ctx, channel, r.client.Subscribe(ctx, channel))
}

// SubscribePattern subscribes to channels matching a glob pattern.
func (r *RedisPubSub) SubscribePattern(ctx context.Context, pattern string) (<-chan *Event, error) {
	return r.subscribe(ctx, pattern, r.client.PSubscribe(ctx, pattern))
}

func (r *RedisPubSub) subscribe(ctx context.Context, key string, ps *redis.PubSub) (<-chan *Event, error) {
	// Wait for the subscription confirmation so no publish is missed.
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", key, err)
	}

	r.mu.Lock()
	if existing, ok := r.subscriptions[key]; ok {
		existing.Close()
	}
	r.subscriptions[key] = ps
	r.mu.Unlock()

	eventCh := make(chan *Event, 100)
	go r.processMessages(ctx, ps, eventCh)
	return eventCh, nil
}

// Unsubscribe closes the subscription for a channel or pattern.
func (r *RedisPubSub) Unsubscribe(ctx context.Context, channel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ps, ok := r.subscriptions[channel]; ok {
		delete(r.subscriptions, channel)
		if err := ps.Close(); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all subscriptions and the Redis client.
func (r *RedisPubSub) Close() error {
	r.mu.Lock()
	for key, ps := range r.subscriptions {
		ps.Close()
		delete(r.subscriptions, key)
	}
	r.mu.Unlock()

	return r.client.Close()
}

// processMessages forwards Redis messages in arrival order. It blocks on a
// full eventCh rather than dropping, so a slow consumer applies backpressure
// to this subscription only.
func (r *RedisPubSub) processMessages(ctx context.Context, ps *redis.PubSub, eventCh chan<- *Event) {
	defer close(eventCh)

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				l := log.L()
				l.Warn().Err(err).Str("channel", msg.Channel).Msg("redis pubsub: dropping malformed event")
				continue
			}
			if event.Channel == "" {
				event.Channel = msg.Channel
			}

			select {
			case eventCh <- &event:
			case <-ctx.Done():
				return
			}
		}
	}
}
