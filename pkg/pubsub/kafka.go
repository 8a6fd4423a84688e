package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/google/uuid"

	"github.com/weiawesome/asg-rev/pkg/log"
)

// channelToTopicAndKey maps a group chat channel onto the shared Kafka
// topic, keyed by room so one room stays on one partition:
//
//	"group_chat_w1_c2_ch3" → topic "group-chat", key "w1_c2_ch3"
func channelToTopicAndKey(channel string) (topic, key string, err error) {
	roomKey, ok := RoomKeyFromChannel(channel)
	if !ok || roomKey == "" {
		return "", "", fmt.Errorf("invalid channel format: %s", channel)
	}
	return groupChatTopic, roomKey, nil
}

// patternToTopic maps a subscribe pattern onto the shared topic. Only the
// group chat pattern is supported.
func patternToTopic(pattern string) (string, error) {
	if pattern != GroupChatPattern {
		return "", fmt.Errorf("unsupported pattern: %s", pattern)
	}
	return groupChatTopic, nil
}

type kafkaSubscription struct {
	consumer *kafka.Consumer
	cancel   context.CancelFunc
}

// KafkaPubSub implements PubSub on Kafka. Every instance consumes with its
// own consumer group so each one sees every event (fan-out, not queueing).
type KafkaPubSub struct {
	producer      *kafka.Producer
	subscriptions map[string]*kafkaSubscription
	config        KafkaConfig
	instanceID    string
	mu            sync.Mutex
	doneCh        chan struct{}
}

// NewKafkaPubSub creates a new Kafka-based PubSub instance.
func NewKafkaPubSub(cfg KafkaConfig) (*KafkaPubSub, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
		"acks":              "1",
		"linger.ms":         5,
		"compression.type":  "snappy",
		// Keeps per-key ordering under retries.
		"max.in.flight.requests.per.connection": 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	kps := &KafkaPubSub{
		producer:      p,
		subscriptions: make(map[string]*kafkaSubscription),
		config:        cfg,
		instanceID:    uuid.New().String(),
		doneCh:        make(chan struct{}),
	}

	go kps.deliveryReportHandler()

	if err := kps.ensureTopic(); err != nil {
		l := log.L()
		l.Warn().Err(err).Str("topic", groupChatTopic).Msg("failed to ensure kafka topic (may already exist)")
	}

	return kps, nil
}

func (k *KafkaPubSub) ensureTopic() error {
	admin, err := kafka.NewAdminClientFromProducer(k.producer)
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	partitions := k.config.Partitions
	if partitions <= 0 {
		partitions = 4
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results, err := admin.CreateTopics(ctx, []kafka.TopicSpecification{{
		Topic:             groupChatTopic,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	}})
	if err != nil {
		return fmt.Errorf("failed to create topics: %w", err)
	}

	for _, r := range results {
		if r.Error.Code() != kafka.ErrNoError && r.Error.Code() != kafka.ErrTopicAlreadyExists {
			return fmt.Errorf("failed to create topic %s: %v", r.Topic, r.Error)
		}
	}
	return nil
}

func (k *KafkaPubSub) deliveryReportHandler() {
	for e := range k.producer.Events() {
		if ev, ok := e.(*kafka.Message); ok && ev.TopicPartition.Error != nil {
			l := log.L()
			l.Error().Err(ev.TopicPartition.Error).Msg("kafka pubsub delivery failed")
		}
	}
	close(k.doneCh)
}

// Publish produces the event onto the shared topic keyed by room.
func (k *KafkaPubSub) Publish(ctx context.Context, channel string, event *Event) error {
	topic, key, err := channelToTopicAndKey(channel)
	if err != nil {
		return fmt.Errorf("failed to parse channel: %w", err)
	}

	if event.Channel == "" {
		event.Channel = channel
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(key),
		Value: data,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}
	return nil
}

// Subscribe consumes only events of one room channel.
func (k *KafkaPubSub) Subscribe(ctx context.Context, channel string) (<-chan *Event, error) {
	topic, roomKey, err := channelToTopicAndKey(channel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse channel: %w", err)
	}
	return k.subscribeToTopic(ctx, channel, topic, roomKey)
}

// SubscribePattern consumes every room channel.
func (k *KafkaPubSub) SubscribePattern(ctx context.Context, pattern string) (<-chan *Event, error) {
	topic, err := patternToTopic(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pattern: %w", err)
	}
	return k.subscribeToTopic(ctx, pattern, topic, "")
}

func (k *KafkaPubSub) subscribeToTopic(ctx context.Context, subKey, topic, filterKey string) (<-chan *Event, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if existing, ok := k.subscriptions[subKey]; ok {
		existing.cancel()
		existing.consumer.Close()
		delete(k.subscriptions, subKey)
	}

	groupID := k.config.GroupID
	if groupID == "" {
		groupID = "asg-rev-chat"
	}
	consumerGroupID := fmt.Sprintf("%s-%s-%s", groupID, k.instanceID, sanitizeGroupID(subKey))

	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":       k.config.Brokers,
		"group.id":                consumerGroupID,
		"auto.offset.reset":       "latest",
		"enable.auto.commit":      true,
		"auto.commit.interval.ms": 5000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	if err := c.Subscribe(topic, nil); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	eventCh := make(chan *Event, 100)

	k.subscriptions[subKey] = &kafkaSubscription{
		consumer: c,
		cancel:   cancel,
	}

	go k.consumeMessages(subCtx, c, eventCh, filterKey)

	return eventCh, nil
}

// consumeMessages polls Kafka and forwards events in partition order.
func (k *KafkaPubSub) consumeMessages(ctx context.Context, c *kafka.Consumer, eventCh chan<- *Event, filterKey string) {
	defer close(eventCh)
	l := log.L()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		ev := c.Poll(500)
		if ev == nil {
			continue
		}

		switch e := ev.(type) {
		case *kafka.Message:
			if filterKey != "" && string(e.Key) != filterKey {
				continue
			}

			var event Event
			if err := json.Unmarshal(e.Value, &event); err != nil {
				l.Warn().Err(err).Msg("kafka pubsub: dropping malformed event")
				continue
			}

			select {
			case eventCh <- &event:
			case <-ctx.Done():
				return
			}

		case kafka.Error:
			l.Error().Err(e).Int("code", int(e.Code())).Bool("fatal", e.IsFatal()).Msg("kafka pubsub error")
			if e.IsFatal() {
				return
			}
		}
	}
}

// Unsubscribe closes the consumer for a channel or pattern.
func (k *KafkaPubSub) Unsubscribe(ctx context.Context, channel string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if sub, ok := k.subscriptions[channel]; ok {
		sub.cancel()
		delete(k.subscriptions, channel)
		if err := sub.consumer.Close(); err != nil {
			return fmt.Errorf("failed to close consumer: %w", err)
		}
	}
	return nil
}

// Close closes all subscriptions and the producer.
func (k *KafkaPubSub) Close() error {
	k.mu.Lock()
	for key, sub := range k.subscriptions {
		sub.cancel()
		sub.consumer.Close()
		delete(k.subscriptions, key)
	}
	k.mu.Unlock()

	k.producer.Flush(5000)
	k.producer.Close()
	<-k.doneCh
	return nil
}

var groupIDRegexp = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

func sanitizeGroupID(s string) string {
	return groupIDRegexp.ReplaceAllString(s, "-")
}
