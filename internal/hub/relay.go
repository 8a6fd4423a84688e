package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/weiawesome/asg-rev/pkg/log"
	"github.com/weiawesome/asg-rev/pkg/pubsub"
)

// Relay is the cluster-wide broadcaster. Publishes go to the shared bus;
// every instance, this one included, receives them back through its
// pattern subscription and delivers to its local subscribers.
type Relay struct {
	hub    *Hub
	bus    pubsub.PubSub
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRelay(h *Hub, bus pubsub.PubSub) *Relay {
	return &Relay{hub: h, bus: bus}
}

// Start subscribes to every group chat channel on the bus.
func (r *Relay) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	events, err := r.bus.SubscribePattern(ctx, pubsub.GroupChatPattern)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe to %s: %w", pubsub.GroupChatPattern, err)
	}
	r.cancel = cancel

	r.wg.Add(1)
	go r.forward(ctx, events)

	l := log.L()
	l.Info().Str("pattern", pubsub.GroupChatPattern).Msg("relay started")
	return nil
}

func (r *Relay) forward(ctx context.Context, events <-chan *pubsub.Event) {
	defer r.wg.Done()

	for event := range events {
		if _, ok := pubsub.RoomKeyFromChannel(event.Channel); !ok {
			continue
		}
		var frame json.RawMessage
		if err := event.UnmarshalPayload(&frame); err != nil {
			l := log.L()
			l.Warn().Err(err).Str(log.FieldTopic, event.Channel).Msg("relay: dropping malformed event")
			continue
		}
		if err := r.hub.Publish(ctx, event.Channel, frame); err != nil {
			l := log.L()
			l.Warn().Err(err).Str(log.FieldTopic, event.Channel).Msg("relay: failed to deliver locally")
			if ctx.Err() != nil {
				return
			}
		}
	}
}

func (r *Relay) Subscribe(topic string, client *Client) {
	r.hub.Subscribe(topic, client)
}

func (r *Relay) Unsubscribe(topic string, client *Client) {
	r.hub.Unsubscribe(topic, client)
}

// Publish sends data to every instance subscribed to topic.
func (r *Relay) Publish(ctx context.Context, topic string, data []byte) error {
	event, err := pubsub.NewEvent(pubsub.EventGroupChat, topic, rawJSON(data))
	if err != nil {
		return fmt.Errorf("failed to build event: %w", err)
	}
	if err := r.bus.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Stop ends the bus subscription and waits for the forwarder to drain.
func (r *Relay) Stop() error {
	if r.cancel == nil {
		return nil
	}
	err := r.bus.Unsubscribe(context.Background(), pubsub.GroupChatPattern)
	r.cancel()
	r.wg.Wait()
	return err
}

// rawJSON keeps already-encoded frames verbatim inside the event payload.
type rawJSON []byte

func (m rawJSON) MarshalJSON() ([]byte, error) {
	return m, nil
}
