// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the sync
// client. It aggregates all sub-configurations and is populated by merging
// values from environment variables, command-line flags, and an optional
// JSON file.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings such as the record owner and
	// the log file location.
	App App `envPrefix:"APP_"`

	// Storage holds configuration for the local persistence backends:
	// the SQLite sync database and the badger document cache.
	Storage Storage `envPrefix:"STORAGE_"`

	// Adapter holds network address and timeout settings for the remote
	// sync server.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Sync holds tuning knobs for the sync engine itself.
	Sync Sync `envPrefix:"SYNC_"`

	// Workers holds configuration for background worker processes.
	Workers Workers `envPrefix:"WORKERS_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level configuration values.
type App struct {
	// Owner is the identifier of the authenticated user all local
	// records belong to.
	// Env: APP_OWNER
	Owner string `env:"OWNER"`

	// LogFile is the path of the rotated daemon log file. Empty means
	// log to stdout.
	// Env: APP_LOG_FILE
	LogFile string `env:"LOG_FILE"`
}

// Storage groups the configuration for all local persistence backends.
type Storage struct {
	// DB holds the local sync database settings.
	DB DB `envPrefix:"DB_"`

	// Cache holds the bounded document cache settings.
	Cache Cache `envPrefix:"CACHE_"`
}

// DB holds connection settings for the local SQLite sync database.
type DB struct {
	// DSN is the SQLite file path (e.g. "sync.db" or an absolute path).
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Cache holds settings for the bounded document cache.
type Cache struct {
	// Dir is the directory holding the badger cache files.
	// Env: STORAGE_CACHE_DIR
	Dir string `env:"DIR"`

	// MaxBytes is the cache budget; inserting past it evicts the least
	// recently accessed documents until the total fits again.
	// Env: STORAGE_CACHE_MAX_BYTES
	MaxBytes int64 `env:"MAX_BYTES"`
}

// Adapter holds network settings for the remote sync server.
type Adapter struct {
	// HTTPAddress is the base address of the sync server,
	// in "host:port" or full URL form.
	// Env: ADAPTER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout is the maximum duration allowed for a single
	// outbound request (e.g. "15s", "1m").
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Sync holds tuning knobs for the sync engine.
type Sync struct {
	// PullBackoffInitial is the first suppression window applied after a
	// pull transport failure.
	// Env: SYNC_PULL_BACKOFF_INITIAL
	PullBackoffInitial time.Duration `env:"PULL_BACKOFF_INITIAL"`

	// PullBackoffMax caps the exponential growth of the suppression
	// window under repeated pull failures.
	// Env: SYNC_PULL_BACKOFF_MAX
	PullBackoffMax time.Duration `env:"PULL_BACKOFF_MAX"`
}

// Workers holds configuration for background worker processes.
type Workers struct {
	// ProbeInterval defines how often the connectivity watcher probes
	// the server health endpoint.
	// Env: WORKERS_PROBE_INTERVAL
	ProbeInterval time.Duration `env:"PROBE_INTERVAL"`

	// SyncDebounce coalesces bursts of local writes into a single sync
	// trigger.
	// Env: WORKERS_SYNC_DEBOUNCE
	SyncDebounce time.Duration `env:"SYNC_DEBOUNCE"`
}

// Defaults applied by validate for optional tuning values.
const (
	defaultRequestTimeout     = 15 * time.Second
	defaultPullBackoffInitial = 2 * time.Second
	defaultPullBackoffMax     = 5 * time.Minute
	defaultProbeInterval      = 30 * time.Second
	defaultSyncDebounce       = 2 * time.Second
	defaultCacheMaxBytes      = 50 << 20
)

// GetStructuredConfig loads, merges, and validates the application
// configuration from all available sources in the following priority order
// (last source wins for non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//
// Returns a fully populated *StructuredConfig or an error if any source
// fails to load or the final config fails validation.
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		build()
}

// validate checks the merged configuration and fills in defaults for
// optional tuning values.
func (cfg *StructuredConfig) validate() error {
	if cfg.App.Owner == "" {
		return ErrInvalidAppConfigs
	}

	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}
	if cfg.Storage.Cache.Dir == "" {
		return ErrInvalidStorageConfigs
	}
	if cfg.Storage.Cache.MaxBytes <= 0 {
		cfg.Storage.Cache.MaxBytes = defaultCacheMaxBytes
	}

	if cfg.Adapter.HTTPAddress == "" {
		return ErrInvalidAdapterConfigs
	}
	if cfg.Adapter.RequestTimeout <= 0 {
		cfg.Adapter.RequestTimeout = defaultRequestTimeout
	}

	if cfg.Sync.PullBackoffInitial <= 0 {
		cfg.Sync.PullBackoffInitial = defaultPullBackoffInitial
	}
	if cfg.Sync.PullBackoffMax <= 0 {
		cfg.Sync.PullBackoffMax = defaultPullBackoffMax
	}

	if cfg.Workers.ProbeInterval <= 0 {
		cfg.Workers.ProbeInterval = defaultProbeInterval
	}
	if cfg.Workers.SyncDebounce <= 0 {
		cfg.Workers.SyncDebounce = defaultSyncDebounce
	}

	return nil
}
