package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/weiawesome/asg-rev/internal/config"
	"github.com/weiawesome/asg-rev/internal/domain"
	"github.com/weiawesome/asg-rev/pkg/log"
)

// EventMessageCreated is the type header on produced records.
const EventMessageCreated = "chat.message.created"

type ConfluentProducer struct {
	producer *kafka.Producer
	topic    string
	doneCh   chan struct{}
}

func NewConfluentProducer(cfg config.KafkaConfig) (*ConfluentProducer, error) {
	// Ensure topic exists with desired partition count
	if err := ensureTopic(cfg.Brokers, cfg.Topic, cfg.Partitions); err != nil {
		l := log.L()
		l.Warn().Err(err).Str("topic", cfg.Topic).Msg("failed to ensure kafka topic (may already exist)")
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
		"acks":              "1",
		"linger.ms":         5,
		"compression.type":  "snappy",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	cp := &ConfluentProducer{
		producer: p,
		topic:    cfg.Topic,
		doneCh:   make(chan struct{}),
	}

	go cp.deliveryReportHandler()

	return cp, nil
}

func ensureTopic(brokers, topic string, partitions int) error {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	if partitions <= 0 {
		partitions = 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results, err := admin.CreateTopics(ctx, []kafka.TopicSpecification{
		{
			Topic:             topic,
			NumPartitions:     partitions,
			ReplicationFactor: 1,
		},
	})
	if err != nil {
		return err
	}

	for _, result := range results {
		if result.Error.Code() != kafka.ErrNoError && result.Error.Code() != kafka.ErrTopicAlreadyExists {
			return fmt.Errorf("failed to create topic %s: %v", result.Topic, result.Error)
		}
	}

	return nil
}

func (cp *ConfluentProducer) deliveryReportHandler() {
	for e := range cp.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				l := log.L()
				l.Error().Err(ev.TopicPartition.Error).Str("topic", cp.topic).Msg("kafka delivery failed")
			}
		}
	}
	close(cp.doneCh)
}

// ProduceMessageCreated keys records by channel so one channel's events
// stay ordered on one partition.
func (cp *ConfluentProducer) ProduceMessageCreated(ctx context.Context, event *domain.MessageCreatedEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal message event: %w", err)
	}

	err = cp.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &cp.topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(event.ChannelID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(EventMessageCreated)},
		},
		Timestamp: event.CreatedAt,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to produce message event: %w", err)
	}

	return nil
}

func (cp *ConfluentProducer) Close() error {
	cp.producer.Flush(5000)
	cp.producer.Close()
	<-cp.doneCh
	return nil
}
