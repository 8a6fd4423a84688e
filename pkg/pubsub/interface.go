package pubsub

import (
	"context"
	"encoding/json"
	"time"
)

// Event is the envelope published on the bus. Channel is the logical channel
// the event was published to, so pattern subscribers can route it.
type Event struct {
	Type      string          `json:"type"`
	Channel   string          `json:"channel"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent marshals payload into a new event stamped with the current time.
func NewEvent(eventType, channel string, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Channel:   channel,
		Payload:   data,
		Timestamp: time.Now(),
	}, nil
}

// UnmarshalPayload unmarshals the event payload into v.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// Publisher publishes events to the event bus.
type Publisher interface {
	Publish(ctx context.Context, channel string, event *Event) error
}

// Subscriber subscribes to events from the event bus. Events of a single
// channel are delivered in publish order.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan *Event, error)
	SubscribePattern(ctx context.Context, pattern string) (<-chan *Event, error)
	Unsubscribe(ctx context.Context, channel string) error
}

// PubSub combines Publisher and Subscriber interfaces.
type PubSub interface {
	Publisher
	Subscriber
	Close() error
}
