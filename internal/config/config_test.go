package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("requires jwt secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET")
	})

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("JWT_ACCESS_TTL", "")
		t.Setenv("BCRYPT_COST", "")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, cfg.JWTAccessTTL)
		assert.Equal(t, 7*24*time.Hour, cfg.JWTRefreshTTL)
		assert.Equal(t, 12, cfg.BcryptCost)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("JWT_ACCESS_TTL", "5m")
		t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 5*time.Minute, cfg.JWTAccessTTL)
		assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Port:          "8080",
			JWTSecret:     "secret",
			JWTAccessTTL:  time.Minute,
			JWTRefreshTTL: time.Hour,
			BcryptCost:    10,
			WSSendBuffer:  16,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "zero access ttl", mutate: func(c *Config) { c.JWTAccessTTL = 0 }, wantErr: true},
		{name: "negative refresh ttl", mutate: func(c *Config) { c.JWTRefreshTTL = -time.Second }, wantErr: true},
		{name: "bcrypt cost too low", mutate: func(c *Config) { c.BcryptCost = 1 }, wantErr: true},
		{name: "bcrypt cost too high", mutate: func(c *Config) { c.BcryptCost = 40 }, wantErr: true},
		{name: "empty send buffer", mutate: func(c *Config) { c.WSSendBuffer = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
