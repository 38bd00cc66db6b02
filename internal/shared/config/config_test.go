package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "market-api", cfg.ServiceName)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "9095", cfg.MetricsPort)
	assert.Equal(t, "memory", cfg.StorageDriver)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "bet_placed", cfg.TopicBetPlaced)
	assert.Equal(t, 10*time.Second, cfg.StatsCacheTTL)
	assert.True(t, cfg.SeedExperts)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("STATS_CACHE_TTL", "30s")
	t.Setenv("SEED_EXPERTS", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("KAFKA_TOPIC_EVENT_SETTLED", "settled_v2")

	cfg := Load()

	assert.Equal(t, "postgres", cfg.StorageDriver)
	assert.Equal(t, "9000", cfg.HTTPPort)
	assert.Equal(t, 30*time.Second, cfg.StatsCacheTTL)
	assert.False(t, cfg.SeedExperts)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "settled_v2", cfg.TopicEventSettled)
}
