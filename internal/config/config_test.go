package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/ruralsite")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("S3_BUCKET_NAME", "media")
	t.Setenv("S3_ACCESS_KEY", "key")
	t.Setenv("S3_SECRET_KEY", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, 15*time.Minute, cfg.Activity.IdleTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Activity.WarnBefore)
	assert.Equal(t, 3, cfg.Storage.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Storage.Timeout)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "localhost:8080", cfg.Addr())
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("ADMIN_IDLE_TIMEOUT", "10m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("SERVER_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 10*time.Minute, cfg.Activity.IdleTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadFailsWithoutRequiredSettings(t *testing.T) {
	tests := []struct {
		name  string
		unset string
		value string
		want  error
	}{
		{name: "missing database url", unset: "DATABASE_URL", want: ErrMissingDatabaseURL},
		{name: "missing signing secret", unset: "JWT_SECRET", want: ErrMissingSigningKey},
		{name: "short signing secret", unset: "JWT_SECRET", value: "short", want: ErrWeakSigningSecret},
		{name: "missing bucket", unset: "S3_BUCKET_NAME", want: ErrMissingStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.unset, tt.value)

			cfg, err := Load()
			assert.Nil(t, cfg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPrivateKeyReplacesSecret(t *testing.T) {
	cfg := LoadTestConfig()
	cfg.Session.Secret = ""
	cfg.Session.PrivateKey = "c29tZS1rZXk="

	assert.NoError(t, cfg.Validate())
}

func TestTestConfigIsValid(t *testing.T) {
	assert.NoError(t, LoadTestConfig().Validate())
}
