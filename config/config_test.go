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

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 30*time.Minute, cfg.ResetTokenTTL)
	assert.False(t, cfg.RequireVerifiedEmailToLogin)
	assert.Equal(t, "postgres", cfg.NonceBackend)
	assert.Equal(t, "AT&T", cfg.CarrierList()[0])
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("REQUIRE_VERIFIED_EMAIL_TO_LOGIN", "true")
	t.Setenv("CARRIERS", " Verizon , ,AT&T")
	t.Setenv("NONCE_BACKEND", "redis")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.RequireVerifiedEmailToLogin)
	assert.Equal(t, []string{"Verizon", "AT&T"}, cfg.CarrierList())
	assert.Equal(t, "redis", cfg.NonceBackend)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			JWTSecret:       "s",
			SessionTTL:      time.Hour,
			ResetTokenTTL:   time.Minute,
			VerifyTokenTTL:  time.Minute,
			HashConcurrency: 1,
			NonceBackend:    "postgres",
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty secret", func(c *Config) { c.JWTSecret = "" }},
		{"default secret in production", func(c *Config) { c.Env = "production"; c.JWTSecret = "devsecret-change-me" }},
		{"zero ttl", func(c *Config) { c.ResetTokenTTL = 0 }},
		{"zero hash concurrency", func(c *Config) { c.HashConcurrency = 0 }},
		{"unknown nonce backend", func(c *Config) { c.NonceBackend = "memcached" }},
	}

	ok := base()
	require.NoError(t, ok.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	c := Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "d", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", c.PostgresDSN())
}
