package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"NOTARIA_ADDR", "DATABASE_URL", "REDIS_URL", "KAFKA_BROKERS",
		"JWT_SIGNING_KEY", "TEMPLATE_CACHE_TTL", "LOG_LEVEL", "TX_TIMEOUT",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.Redis.URL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "notaria.notifications", cfg.Kafka.Topic)
	assert.NotEmpty(t, cfg.JWT.SigningKey)
	assert.Equal(t, 5*time.Minute, cfg.Templates.CacheTTL)
	assert.Equal(t, 5*time.Second, cfg.TxTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("NOTARIA_ADDR", ":9090")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092,")
	t.Setenv("TEMPLATE_CACHE_TTL", "30s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("AUDIT_BUFFER_SIZE", "not-a-number")

	cfg := FromEnv()
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 30*time.Second, cfg.Templates.CacheTTL)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 1024, cfg.AuditBuffer, "invalid values fall back to defaults")
}
