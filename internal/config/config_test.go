package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Moderation.Timeout)
	assert.Equal(t, "gemini", cfg.Moderation.Provider)
	assert.Equal(t, 20, cfg.History.Limit)
	assert.Equal(t, "memory", cfg.History.Driver)
	assert.Equal(t, 60*time.Second, cfg.WebSocket.PongWait)
	assert.Equal(t, int64(4096), cfg.WebSocket.MaxMessageSize)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("CASSANDRA_HOSTS", "db1:9042, db2:9042")
	t.Setenv("MODERATION_TIMEOUT", "750ms")
	t.Setenv("MODERATION_WORDLIST", "foo, bar")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "k", cfg.Moderation.APIKey)
	assert.Equal(t, []string{"db1:9042", "db2:9042"}, cfg.Cassandra.Hosts)
	assert.Equal(t, 750*time.Millisecond, cfg.Moderation.Timeout)
	assert.Equal(t, []string{"foo", "bar"}, cfg.Moderation.Wordlist)
}

func TestLoad_NonPositiveLimitFallsBack(t *testing.T) {
	t.Setenv("HISTORY_LIMIT", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.History.Limit)
}
