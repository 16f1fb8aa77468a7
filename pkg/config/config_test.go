package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Database.ConnectRetries)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, EventsAsynq, cfg.Events.Backend)
	assert.Equal(t, "companies.events", cfg.Events.KafkaTopic)
	assert.Equal(t, 90, cfg.Audit.RetentionDays)
	assert.Equal(t, "0 3 * * *", cfg.Audit.PruneCron)
	assert.Empty(t, cfg.CORS.AllowedOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("EVENTS_BACKEND", "KAFKA")
	t.Setenv("EVENTS_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")
	t.Setenv("RATE_LIMIT_WINDOW_SECONDS", "30")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Addr())
	assert.Equal(t, EventsKafka, cfg.Events.Backend)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Events.KafkaBrokers)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "30s", cfg.RateLimit.Window().String())
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Env: "development"},
			JWT:    JWTConfig{Secret: "secret"},
			Events: EventsConfig{Backend: EventsNone},
			Audit:  AuditConfig{RetentionDays: 30},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"empty secret", func(c *Config) { c.JWT.Secret = "" }, "JWT_SECRET"},
		{"default secret in production", func(c *Config) {
			c.Server.Env = "production"
			c.JWT.Secret = defaultJWTSecret
		}, "JWT_SECRET"},
		{"kafka without brokers", func(c *Config) { c.Events.Backend = EventsKafka }, "EVENTS_KAFKA_BROKERS"},
		{"unknown backend", func(c *Config) { c.Events.Backend = "sqs" }, "EVENTS_BACKEND"},
		{"zero retention", func(c *Config) { c.Audit.RetentionDays = 0 }, "AUDIT_RETENTION_DAYS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
