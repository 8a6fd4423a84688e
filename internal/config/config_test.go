package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, ProtocolLegacy, cfg.Chat.DefaultProtocol)
	assert.Equal(t, 30*time.Second, cfg.WebSocket.PingInterval)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, "none", cfg.PubSub.Driver)
	assert.Equal(t, 60*time.Second, cfg.Cache.TTL)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
chat:
  default_protocol: envelope
  in_flight_timeout: 5s
database:
  driver: postgres
  dbname: chat
storage:
  driver: s3
  s3:
    bucket: attachments
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0644))
	t.Setenv("PORT", "9100")
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, ProtocolEnvelope, cfg.Chat.DefaultProtocol)
	assert.Equal(t, 5*time.Second, cfg.Chat.InFlightTimeout)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "chat", cfg.Database.DBName)
	assert.Equal(t, "attachments", cfg.Storage.S3.Bucket)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)

	db := cfg.Database.ToDatabase()
	assert.Equal(t, "postgres", db.Driver)
	assert.Equal(t, "UTC", db.TimeZone)
}
