package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CART_BACKEND", "")
	t.Setenv("CART_STORAGE_KEY", "")
	t.Setenv("CART_POLL_INTERVAL", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load("testdata/missing.env")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, BackendMemory, cfg.Cart.Backend)
	assert.Equal(t, DefaultStorageKey, cfg.Cart.StorageKey)
	assert.Equal(t, time.Second, cfg.Cart.PollInterval)
	assert.False(t, cfg.Sheets.Enabled())
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Run("bad poll interval", func(t *testing.T) {
		t.Setenv("CART_POLL_INTERVAL", "soon")
		_, err := Load("testdata/missing.env")
		assert.Error(t, err)
	})

	t.Run("bad redis db", func(t *testing.T) {
		t.Setenv("REDIS_DB", "zero")
		_, err := Load("testdata/missing.env")
		assert.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: "8080"},
			Cart:     CartConfig{Backend: BackendMemory, StorageKey: DefaultStorageKey, PollInterval: time.Second},
			Redis:    RedisConfig{Addr: "localhost:6379"},
			MongoDB:  MongoDBConfig{DBName: "medimart"},
			Checkout: CheckoutConfig{SheetRange: "Orders!A:H"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid memory backend", mutate: func(c *Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.Cart.Backend = "sqlite" }, wantErr: "unsupported CART_BACKEND"},
		{name: "poll interval below cron granularity", mutate: func(c *Config) { c.Cart.PollInterval = 100 * time.Millisecond }, wantErr: "CART_POLL_INTERVAL"},
		{name: "empty storage key", mutate: func(c *Config) { c.Cart.StorageKey = "" }, wantErr: "CART_STORAGE_KEY"},
		{name: "mongodb without uri", mutate: func(c *Config) { c.Cart.Backend = BackendMongoDB }, wantErr: "MONGODB_URI"},
		{name: "redis without addr", mutate: func(c *Config) { c.Cart.Backend = BackendRedis; c.Redis.Addr = "" }, wantErr: "REDIS_ADDR"},
		{name: "sheets half configured", mutate: func(c *Config) { c.Sheets.CredentialsPath = "creds.json" }, wantErr: "must be provided together"},
		{
			name: "sheets fully configured",
			mutate: func(c *Config) {
				c.Sheets = SheetsConfig{CredentialsPath: "creds.json", SpreadsheetID: "sheet"}
			},
		},
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
