package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		DBPassword:       "pw",
		JWTSecret:        "secret",
		RateLimitTrigger: 5,
		SMTP:             SMTPConfig{Host: "smtp.example.com", Port: 587, Timeout: 30 * time.Second},
		Dispatch:         DispatchConfig{DailyLimit: 4000, BatchSize: 50, SendDelay: 100 * time.Millisecond, PassPause: time.Second},
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"DAILY_EMAIL_LIMIT", "BATCH_SIZE", "SEND_DELAY", "PASS_PAUSE", "SEND_TIMEOUT", "DISPATCH_SCHEDULE", "SERVER_PORT", "CORS_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	assert.Equal(t, "5000", cfg.ServerPort)
	assert.Equal(t, 4000, cfg.Dispatch.DailyLimit)
	assert.Equal(t, 50, cfg.Dispatch.BatchSize)
	assert.Equal(t, "*/10 * * * *", cfg.Dispatch.Schedule)
	assert.Equal(t, 100*time.Millisecond, cfg.Dispatch.SendDelay)
	assert.Equal(t, time.Second, cfg.Dispatch.PassPause)
	assert.Equal(t, 30*time.Second, cfg.SMTP.Timeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DAILY_EMAIL_LIMIT", "250")
	t.Setenv("BATCH_SIZE", "10")
	t.Setenv("SEND_DELAY", "250")
	t.Setenv("PASS_PAUSE", "2s")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("CORS_ORIGINS", "https://a.io, https://b.io,")
	t.Setenv("SMTP_PORT", "not-a-number")

	cfg := FromEnv()
	assert.Equal(t, 250, cfg.Dispatch.DailyLimit)
	assert.Equal(t, 10, cfg.Dispatch.BatchSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Dispatch.SendDelay)
	assert.Equal(t, 2*time.Second, cfg.Dispatch.PassPause)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"https://a.io", "https://b.io"}, cfg.CORSOrigins)
	assert.Equal(t, 587, cfg.SMTP.Port)
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"db password", func(c *Config) { c.DBPassword = "" }, "DB_PASSWORD"},
		{"jwt secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET"},
		{"smtp host", func(c *Config) { c.SMTP.Host = "" }, "SMTP_HOST"},
		{"daily limit", func(c *Config) { c.Dispatch.DailyLimit = 0 }, "DAILY_EMAIL_LIMIT"},
		{"batch size", func(c *Config) { c.Dispatch.BatchSize = -1 }, "BATCH_SIZE"},
		{"send delay", func(c *Config) { c.Dispatch.SendDelay = -time.Second }, "SEND_DELAY"},
		{"send timeout", func(c *Config) { c.SMTP.Timeout = 0 }, "SEND_TIMEOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMaskPassword(t *testing.T) {
	assert.Equal(t, "host=db password=***** dbname=x", maskPassword("host=db password=hunter2 dbname=x"))
	assert.Equal(t, "host=db password=*****", maskPassword("host=db password=hunter2"))
	assert.Equal(t, "host=db", maskPassword("host=db"))
}
