package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-dash-sync/internal/config"
	"github.com/MKhiriev/go-dash-sync/internal/logger"
)

// Storages groups all local storage repositories into a single value that
// can be passed around the service layer: records, conflicts, and the
// bookkeeping metadata table, all backed by one SQLite database.
type Storages struct {
	// Records is the repository for versioned syncable records.
	Records RecordRepository

	// Conflicts is the repository for pending sync conflicts.
	Conflicts ConflictRepository

	// Metadata is the flat key/value repository for engine bookkeeping.
	Metadata MetadataRepository

	db *DB
}

// NewStorages initialises the local storage layer using the supplied
// configuration and logger. It performs the following steps:
//  1. Opens an SQLite connection to the file path specified in cfg.DB.DSN,
//     creating the database file if it does not yet exist.
//  2. Runs pending schema migrations via [DB.Migrate].
//  3. Constructs and returns a [Storages] value wired to fresh
//     repositories.
//
// Returns an error if the database connection cannot be established or if
// migration fails.
func NewStorages(cfg config.Storage, logger *logger.Logger) (*Storages, error) {
	logger.Info().Msg("creating new storages...")

	db, err := NewConnectSQLite(context.Background(), cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &Storages{
		Records:   NewRecordRepository(db, logger),
		Conflicts: NewConflictRepository(db, logger),
		Metadata:  NewMetadataRepository(db, logger),
		db:        db,
	}, nil
}

// Close releases the underlying database connection.
func (s *Storages) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
