package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_PopulatesFields(t *testing.T) {
	t.Setenv("APP_OWNER", "env-user")
	t.Setenv("STORAGE_DB_DATABASE_URI", "env.db")
	t.Setenv("STORAGE_CACHE_DIR", "env-cache")
	t.Setenv("ADAPTER_ADDRESS", "env-host:8080")
	t.Setenv("ADAPTER_REQUEST_TIMEOUT", "12s")
	t.Setenv("SYNC_PULL_BACKOFF_MAX", "3m")
	t.Setenv("CONFIG", "env-config.json")

	cfg := &StructuredConfig{}
	require.NoError(t, parseEnv(cfg))

	assert.Equal(t, "env-user", cfg.App.Owner)
	assert.Equal(t, "env.db", cfg.Storage.DB.DSN)
	assert.Equal(t, "env-cache", cfg.Storage.Cache.Dir)
	assert.Equal(t, "env-host:8080", cfg.Adapter.HTTPAddress)
	assert.Equal(t, 12*time.Second, cfg.Adapter.RequestTimeout)
	assert.Equal(t, 3*time.Minute, cfg.Sync.PullBackoffMax)
	assert.Equal(t, "env-config.json", cfg.JSONFilePath)
}

func TestParseEnv_InvalidDuration(t *testing.T) {
	t.Setenv("ADAPTER_REQUEST_TIMEOUT", "not-a-duration")

	cfg := &StructuredConfig{}
	assert.Error(t, parseEnv(cfg))
}
