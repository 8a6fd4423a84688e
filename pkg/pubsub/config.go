package pubsub

import (
	"fmt"
	"time"
)

// Config holds the configuration for the pub/sub system.
type Config struct {
	Driver string      `mapstructure:"driver"` // "none", "redis", "kafka"
	Redis  RedisConfig `mapstructure:"redis"`
	Kafka  KafkaConfig `mapstructure:"kafka"`
}

// RedisConfig holds Redis-specific configuration.
type RedisConfig struct {
	Address      string        `mapstructure:"address"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// KafkaConfig holds Kafka-specific configuration.
type KafkaConfig struct {
	Brokers    string `mapstructure:"brokers"`
	GroupID    string `mapstructure:"group_id"`
	Partitions int    `mapstructure:"partitions"`
}

// Enabled reports whether a cross-instance bus is configured.
func (c Config) Enabled() bool {
	return c.Driver != "" && c.Driver != "none"
}

// NewPubSub creates the bus named by cfg.Driver.
func NewPubSub(cfg Config) (PubSub, error) {
	switch cfg.Driver {
	case "kafka":
		return NewKafkaPubSub(cfg.Kafka)
	case "redis":
		return NewRedisPubSub(cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported pubsub driver: %q", cfg.Driver)
	}
}
