package modgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"RUN_MODE", "API_PORT", "DB_HOSTNAME", "REDIS_HOST", "NATS_URL", "COMPILE_CACHE_SIZE", "JWT_SECRET"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig("")
	assert.Equal(t, "prod", cfg.Mode)
	assert.Equal(t, ":8080", cfg.ApiPort)
	assert.Equal(t, "modgraph", cfg.Nats.SubjectPrefix)
	assert.Equal(t, 256, cfg.Compile.CacheSize)
	assert.Equal(t, 5000, cfg.Compile.MaxGraphNodes)
	assert.False(t, cfg.DatabaseEnabled())
	assert.False(t, cfg.RedisEnabled())
	assert.False(t, cfg.NatsEnabled())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("RUN_MODE", "dev")
	t.Setenv("DB_HOSTNAME", "db")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("NATS_URL", "nats://bus:4222")
	t.Setenv("COMPILE_CACHE_SIZE", "not-a-number")
	t.Setenv("COMPILE_MAX_NODES", "10")

	cfg := LoadConfig("")
	assert.Equal(t, "dev", cfg.Mode)
	assert.True(t, cfg.DatabaseEnabled())
	assert.True(t, cfg.RedisEnabled())
	assert.True(t, cfg.NatsEnabled())
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 256, cfg.Compile.CacheSize)
	assert.Equal(t, 10, cfg.Compile.MaxGraphNodes)
}

func TestGetBoolEnv(t *testing.T) {
	t.Setenv("DB_LOG_QUERIES", "true")
	assert.True(t, getBoolEnv("DB_LOG_QUERIES", false))
	t.Setenv("DB_LOG_QUERIES", "maybe")
	assert.False(t, getBoolEnv("DB_LOG_QUERIES", false))
}
