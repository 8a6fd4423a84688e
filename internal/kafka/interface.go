package kafka

import (
	"context"

	"github.com/weiawesome/asg-rev/internal/domain"
)

// EventProducer emits persisted-message events for downstream consumers.
type EventProducer interface {
	ProduceMessageCreated(ctx context.Context, event *domain.MessageCreatedEvent) error
	Close() error
}

// NopProducer drops every event. Used when kafka is disabled.
type NopProducer struct{}

func (NopProducer) ProduceMessageCreated(ctx context.Context, event *domain.MessageCreatedEvent) error {
	return nil
}

func (NopProducer) Close() error { return nil }
