package store

import (
	"context"

	"github.com/MKhiriev/go-dash-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// RecordRepository is the persistence contract for syncable records.
// Every operation is individually atomic; a returned error means the
// database was left unchanged.
type RecordRepository interface {
	// Save upserts the record keyed by its ID, replacing any previous row.
	Save(ctx context.Context, record models.SyncableRecord) error

	// SaveIfVersion upserts the record only while the stored row still
	// carries expectedVersion (0 when the caller expects no row yet).
	// Returns false with a nil error when the stored version has moved
	// on and the write was not applied.
	SaveIfVersion(ctx context.Context, record models.SyncableRecord, expectedVersion int64) (bool, error)

	// Get returns the record with the given id, tombstones included.
	// Returns ErrRecordNotFound if no row exists.
	Get(ctx context.Context, id string) (models.SyncableRecord, error)

	// GetByType returns all live (non-tombstone) records of the given type.
	GetByType(ctx context.Context, recordType models.RecordType) ([]models.SyncableRecord, error)

	// GetByStatus returns all records whose sync status is one of statuses.
	GetByStatus(ctx context.Context, statuses ...models.SyncStatus) ([]models.SyncableRecord, error)

	// SetStatusIfVersion updates the sync status of the record with the
	// given id only while the stored row still carries version. Returns
	// false with a nil error when the row is absent or its version has
	// moved on, so a concurrent local write is never stamped with a
	// status it did not earn.
	SetStatusIfVersion(ctx context.Context, id string, version int64, status models.SyncStatus) (bool, error)

	// Count returns the total number of persisted records, tombstones
	// included.
	Count(ctx context.Context) (int64, error)

	// CountByStatus returns the number of records with the given status.
	CountByStatus(ctx context.Context, status models.SyncStatus) (int64, error)
}

// ConflictRepository is the persistence contract for pending sync conflicts.
type ConflictRepository interface {
	// Save upserts the conflict keyed by its contested record id, so a
	// newer pull supersedes a previously detected conflict for the same
	// record.
	Save(ctx context.Context, conflict models.SyncConflict) error

	// Get returns the conflict with the given conflict id.
	// Returns ErrConflictNotFound if no row exists.
	Get(ctx context.Context, id string) (models.SyncConflict, error)

	// GetAll returns all unresolved conflicts ordered by detection time.
	GetAll(ctx context.Context) ([]models.SyncConflict, error)

	// Delete removes the conflict with the given conflict id.
	// Returns ErrConflictNotFound if no row was affected.
	Delete(ctx context.Context, id string) error

	// Count returns the number of unresolved conflicts.
	Count(ctx context.Context) (int64, error)
}

// MetadataRepository is the persistence contract for the flat bookkeeping
// key/value table (user id, device identity, last sync time).
type MetadataRepository interface {
	// Get returns the value stored under key.
	// Returns ErrMetadataNotFound if the key has never been set.
	Get(ctx context.Context, key string) (string, error)

	// Set upserts the value stored under key.
	Set(ctx context.Context, key, value string) error
}
