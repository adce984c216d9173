package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSONConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParseJSON_FullConfig(t *testing.T) {
	path := writeJSONConfig(t, `{
		"app": {"owner": "user-7", "log_file": "client.log"},
		"storage": {
			"db": {"dsn": "sync.db"},
			"cache": {"dir": "cache", "max_bytes": 10485760}
		},
		"adapter": {"http_address": "localhost:9090", "request_timeout": "25s"},
		"sync": {"pull_backoff_initial": "3s", "pull_backoff_max": "2m"},
		"workers": {"probe_interval": "45s", "sync_debounce": "1s"}
	}`)

	cfg, err := parseJSON(path)
	require.NoError(t, err)

	assert.Equal(t, "user-7", cfg.App.Owner)
	assert.Equal(t, "client.log", cfg.App.LogFile)
	assert.Equal(t, "sync.db", cfg.Storage.DB.DSN)
	assert.Equal(t, int64(10485760), cfg.Storage.Cache.MaxBytes)
	assert.Equal(t, "localhost:9090", cfg.Adapter.HTTPAddress)
	assert.Equal(t, 25*time.Second, cfg.Adapter.RequestTimeout)
	assert.Equal(t, 3*time.Second, cfg.Sync.PullBackoffInitial)
	assert.Equal(t, 2*time.Minute, cfg.Sync.PullBackoffMax)
	assert.Equal(t, 45*time.Second, cfg.Workers.ProbeInterval)
	assert.Equal(t, time.Second, cfg.Workers.SyncDebounce)
}

func TestParseJSON_DurationAsNumber(t *testing.T) {
	path := writeJSONConfig(t, `{"adapter": {"request_timeout": 1000000000}}`)

	cfg, err := parseJSON(path)
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.Adapter.RequestTimeout)
}

func TestParseJSON_FileMissing(t *testing.T) {
	_, err := parseJSON(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestParseJSON_MalformedBody(t *testing.T) {
	path := writeJSONConfig(t, `{"app": `)

	_, err := parseJSON(path)
	assert.Error(t, err)
}
