package config

import (
	"time"

	pkgconfig "github.com/weiawesome/asg-rev/pkg/config"
	"github.com/weiawesome/asg-rev/pkg/database"
	"github.com/weiawesome/asg-rev/pkg/pubsub"
	"github.com/weiawesome/asg-rev/pkg/storage"
)

// Protocol versions accepted on the chat socket.
const (
	ProtocolLegacy   = "legacy"
	ProtocolEnvelope = "envelope"
)

type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Chat      ChatConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Presence  PresenceConfig
	PubSub    pubsub.Config `mapstructure:"pubsub"`
	Kafka     KafkaConfig
	Storage   storage.Config
	Auth      AuthConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	SendBufferSize int           `mapstructure:"send_buffer_size"`
}

type ChatConfig struct {
	DefaultProtocol string        `mapstructure:"default_protocol"`
	MaxFileSize     int64         `mapstructure:"max_file_size"`
	InFlightTimeout time.Duration `mapstructure:"in_flight_timeout"`
	FileURLExpiry   time.Duration `mapstructure:"file_url_expiry"`
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	TimeZone        string `mapstructure:"timezone"`
	FilePath        string `mapstructure:"file_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

// ToDatabase converts to the shared database config.
func (d DatabaseConfig) ToDatabase() *database.Config {
	return &database.Config{
		Driver:          d.Driver,
		Host:            d.Host,
		Port:            d.Port,
		User:            d.User,
		Password:        d.Password,
		DBName:          d.DBName,
		SSLMode:         d.SSLMode,
		TimeZone:        d.TimeZone,
		FilePath:        d.FilePath,
		MaxIdleConns:    d.MaxIdleConns,
		MaxOpenConns:    d.MaxOpenConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
		LogLevel:        d.LogLevel,
	}
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
}

type CacheConfig struct {
	Prefix string
	TTL    time.Duration
}

type PresenceConfig struct {
	Prefix            string
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	KeyTTL            time.Duration `mapstructure:"key_ttl"`
}

type KafkaConfig struct {
	Enabled    bool
	Brokers    string
	Topic      string
	Partitions int
}

type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	Issuer         string        `mapstructure:"issuer"`
	AccessDuration time.Duration `mapstructure:"access_duration"`
}

type LogConfig struct {
	Level  string
	Pretty bool
}

// Load reads config/<name>.yaml from configPath, then env overrides.
func Load(configPath string) (*Config, error) {
	v, err := pkgconfig.Load(configPath, "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 16<<20)
	v.SetDefault("websocket.send_buffer_size", 256)
	v.SetDefault("chat.default_protocol", ProtocolLegacy)
	v.SetDefault("chat.max_file_size", 10<<20)
	v.SetDefault("chat.in_flight_timeout", "30s")
	v.SetDefault("chat.file_url_expiry", "168h")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "asg_rev")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.timezone", "UTC")
	v.SetDefault("database.file_path", "./data/asg_rev.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.prefix", "chat:membership")
	v.SetDefault("cache.ttl", "60s")
	v.SetDefault("presence.prefix", "chat:presence")
	v.SetDefault("presence.heartbeat_interval", "10s")
	v.SetDefault("presence.key_ttl", "30s")
	v.SetDefault("pubsub.driver", "none")
	v.SetDefault("pubsub.redis.address", "localhost:6379")
	v.SetDefault("pubsub.redis.pool_size", 10)
	v.SetDefault("pubsub.kafka.brokers", "localhost:9092")
	v.SetDefault("pubsub.kafka.group_id", "asg-rev-chat")
	v.SetDefault("pubsub.kafka.partitions", 4)
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.topic", "chat-messages")
	v.SetDefault("kafka.partitions", 8)
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local.base_path", "./media")
	v.SetDefault("storage.local.public_url", "/media")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.bucket", "asg-rev")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "asg-rev")
	v.SetDefault("auth.access_duration", "24h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// Override from environment
	if err := pkgconfig.BindEnvs(v, map[string]string{
		"server.port":                   "PORT",
		"chat.default_protocol":         "CHAT_DEFAULT_PROTOCOL",
		"chat.max_file_size":            "CHAT_MAX_FILE_SIZE",
		"database.driver":               "DB_DRIVER",
		"database.host":                 "DB_HOST",
		"database.port":                 "DB_PORT",
		"database.user":                 "DB_USER",
		"database.password":             "DB_PASSWORD",
		"database.dbname":               "DB_NAME",
		"database.file_path":            "DB_FILE_PATH",
		"redis.enabled":                 "REDIS_ENABLED",
		"redis.address":                 "REDIS_ADDRESS",
		"redis.password":                "REDIS_PASSWORD",
		"pubsub.driver":                 "PUBSUB_DRIVER",
		"pubsub.redis.address":          "PUBSUB_REDIS_ADDRESS",
		"pubsub.kafka.brokers":          "PUBSUB_KAFKA_BROKERS",
		"kafka.enabled":                 "KAFKA_ENABLED",
		"kafka.brokers":                 "KAFKA_BROKERS",
		"kafka.topic":                   "KAFKA_TOPIC",
		"storage.driver":                "STORAGE_DRIVER",
		"storage.local.base_path":       "STORAGE_LOCAL_BASE_PATH",
		"storage.s3.endpoint":           "S3_ENDPOINT",
		"storage.s3.region":             "S3_REGION",
		"storage.s3.bucket":             "S3_BUCKET",
		"storage.s3.access_key_id":      "S3_ACCESS_KEY_ID",
		"storage.s3.secret_access_key":  "S3_SECRET_ACCESS_KEY",
		"storage.s3.use_path_style":     "S3_USE_PATH_STYLE",
		"storage.s3.public_url":         "S3_PUBLIC_URL",
		"auth.jwt_secret":               "JWT_SECRET",
		"auth.issuer":                   "JWT_ISSUER",
		"log.level":                     "LOG_LEVEL",
	}); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.WebSocket.PingInterval = pkgconfig.Duration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = pkgconfig.Duration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = pkgconfig.Duration(v, "websocket.write_wait", 10*time.Second)
	cfg.Chat.InFlightTimeout = pkgconfig.Duration(v, "chat.in_flight_timeout", 30*time.Second)
	cfg.Chat.FileURLExpiry = pkgconfig.Duration(v, "chat.file_url_expiry", 7*24*time.Hour)
	cfg.Cache.TTL = pkgconfig.Duration(v, "cache.ttl", 60*time.Second)
	cfg.Presence.HeartbeatInterval = pkgconfig.Duration(v, "presence.heartbeat_interval", 10*time.Second)
	cfg.Presence.KeyTTL = pkgconfig.Duration(v, "presence.key_ttl", 30*time.Second)
	cfg.PubSub.Redis.ReadTimeout = pkgconfig.Duration(v, "pubsub.redis.read_timeout", 0)
	cfg.PubSub.Redis.WriteTimeout = pkgconfig.Duration(v, "pubsub.redis.write_timeout", 0)
	cfg.Auth.AccessDuration = pkgconfig.Duration(v, "auth.access_duration", 24*time.Hour)

	return &cfg, nil
}
