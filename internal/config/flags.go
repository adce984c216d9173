package config

import (
	"flag"
	"os"
	"time"
)

// ParseFlags parses all configuration flags from the process arguments.
//
// Flags:
//
//	-a sync server address in format [host]:[port] or a full URL
//	-d local database path (SQLite file)
//	-cache-dir document cache directory
//	-cache-max-bytes document cache budget in bytes
//	-owner record owner identifier
//	-log-file daemon log file path
//	-c/-config json file path with configs
//	-request-timeout outbound request timeout (e.g., "15s", "1m")
//	-pull-backoff-initial initial pull-failure backoff (e.g., "2s")
//	-pull-backoff-max maximum pull-failure backoff (e.g., "5m")
//	-probe-interval connectivity probe interval (e.g., "30s")
//	-sync-debounce local-write sync debounce (e.g., "2s")
func ParseFlags() *StructuredConfig {
	return parseFlags(os.Args[1:])
}

// parseFlags is the testable core of ParseFlags, operating on an explicit
// argument slice with its own FlagSet.
func parseFlags(args []string) *StructuredConfig {
	fs := flag.NewFlagSet("dash-sync", flag.ContinueOnError)

	var serverAddress string
	var databaseDSN string
	var cacheDir string
	var cacheMaxBytes int64
	var owner string
	var logFile string
	var jsonConfigPath string
	var requestTimeout time.Duration
	var pullBackoffInitial time.Duration
	var pullBackoffMax time.Duration
	var probeInterval time.Duration
	var syncDebounce time.Duration

	fs.StringVar(&serverAddress, "a", "", "Sync server address host:port or URL")
	fs.StringVar(&databaseDSN, "d", "", "Local database path")
	fs.StringVar(&cacheDir, "cache-dir", "", "Document cache directory")
	fs.Int64Var(&cacheMaxBytes, "cache-max-bytes", 0, "Document cache budget in bytes")
	fs.StringVar(&owner, "owner", "", "Record owner identifier")
	fs.StringVar(&logFile, "log-file", "", "Daemon log file path")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 15s, 1m)")
	fs.DurationVar(&pullBackoffInitial, "pull-backoff-initial", 0, "Initial pull-failure backoff")
	fs.DurationVar(&pullBackoffMax, "pull-backoff-max", 0, "Maximum pull-failure backoff")
	fs.DurationVar(&probeInterval, "probe-interval", 0, "Connectivity probe interval")
	fs.DurationVar(&syncDebounce, "sync-debounce", 0, "Local-write sync debounce")

	_ = fs.Parse(args)

	return &StructuredConfig{
		App: App{
			Owner:   owner,
			LogFile: logFile,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
			Cache: Cache{
				Dir:      cacheDir,
				MaxBytes: cacheMaxBytes,
			},
		},
		Adapter: Adapter{
			HTTPAddress:    serverAddress,
			RequestTimeout: requestTimeout,
		},
		Sync: Sync{
			PullBackoffInitial: pullBackoffInitial,
			PullBackoffMax:     pullBackoffMax,
		},
		Workers: Workers{
			ProbeInterval: probeInterval,
			SyncDebounce:  syncDebounce,
		},
		JSONFilePath: jsonConfigPath,
	}
}
