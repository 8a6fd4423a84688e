package registry

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/asg-rev/internal/config"
)

func exercise(t *testing.T, reg Registry) {
	ctx := context.Background()

	require.NoError(t, reg.Register(ctx, "w_c_ch", "conn-1", "u1"))
	require.NoError(t, reg.Register(ctx, "w_c_ch", "conn-2", "u1"))
	require.NoError(t, reg.Register(ctx, "w_c_ch", "conn-3", "u2"))
	require.NoError(t, reg.Register(ctx, "w_c_other", "conn-4", "u3"))

	online, err := reg.Online(ctx, "w_c_ch")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, online)

	require.NoError(t, reg.Deregister(ctx, "w_c_ch", "conn-1"))
	online, err = reg.Online(ctx, "w_c_ch")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, online, "u1 still has a second connection")

	require.NoError(t, reg.Deregister(ctx, "w_c_ch", "conn-2"))
	require.NoError(t, reg.Deregister(ctx, "w_c_ch", "conn-2"))
	online, err = reg.Online(ctx, "w_c_ch")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, online)

	online, err = reg.Online(ctx, "nobody_here_x")
	require.NoError(t, err)
	assert.Empty(t, online)
}

func TestMemoryRegistry(t *testing.T) {
	exercise(t, NewMemoryRegistry())
}

// Runs against a live Redis when REDIS_ADDRESS is set.
func TestRedisRegistry_Live(t *testing.T) {
	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		t.Skip("REDIS_ADDRESS not set")
	}

	reg, err := NewRedisRegistry(config.RedisConfig{Address: addr}, config.PresenceConfig{
		Prefix:            "test:presence:" + time.Now().Format("150405.000"),
		HeartbeatInterval: time.Second,
		KeyTTL:            5 * time.Second,
	})
	require.NoError(t, err)
	defer reg.Close()

	exercise(t, reg)
}
