// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package service holds the business logic of the sync client: local record
// writes, the push/pull sync engine, conflict reconciliation and resolution,
// and the stats snapshot.
//
// Services depend on the repository interfaces in internal/store and the
// transport in internal/adapter, and communicate with each other and with the
// background workers through the event bus in internal/events.
package service

import (
	"context"

	"github.com/MKhiriev/go-dash-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

// RecordService owns all local mutations of syncable records. Every write
// bumps the record version, recomputes the content hash and marks the record
// pending so the next sync cycle pushes it.
type RecordService interface {
	// Write creates or updates the record identified by recordType and
	// entityID. A new record starts at version 1; an update increments the
	// stored version. Returns the persisted record.
	Write(ctx context.Context, recordType models.RecordType, entityID string, payload models.Payload) (models.SyncableRecord, error)

	// Delete converts the record into a tombstone: payload dropped, version
	// bumped, marked pending so the deletion propagates. Deleting an
	// already-deleted record is a no-op. Returns store.ErrRecordNotFound if
	// the record never existed.
	Delete(ctx context.Context, id string) error

	// Read returns the record by id. Tombstones read as
	// store.ErrRecordNotFound.
	Read(ctx context.Context, id string) (models.SyncableRecord, error)

	// ReadAll returns all live (non-tombstone) records of recordType,
	// ordered by last modification time.
	ReadAll(ctx context.Context, recordType models.RecordType) ([]models.SyncableRecord, error)
}

// SyncEngine runs push/pull cycles against the server. At most one cycle runs
// at a time; triggers arriving while a cycle is in flight are dropped. Cycle
// outcomes are reported via bus events, never as return values.
type SyncEngine interface {
	// Sync runs one sync cycle now. Manual triggers ignore the failure
	// backoff window. No-op while offline or while a cycle is in flight.
	Sync(ctx context.Context)

	// TrySync runs one sync cycle unless the engine is inside the failure
	// backoff window. Used by automated triggers.
	TrySync(ctx context.Context)

	// SetOnline records the connectivity state. While offline every trigger
	// is a no-op.
	SetOnline(online bool)

	// InFlight reports whether a sync cycle is currently running.
	InFlight() bool
}

// ConflictManager detects version races during pull reconciliation and
// settles them on demand.
type ConflictManager interface {
	// Reconcile folds one pulled remote record into local storage. Returns
	// true if a conflict was detected and recorded instead of applying the
	// remote record.
	Reconcile(ctx context.Context, remote models.SyncableRecord) (bool, error)

	// List returns all unresolved conflicts, oldest first.
	List(ctx context.Context) ([]models.SyncConflict, error)

	// Resolve settles the conflict using strategy and returns the winning
	// record. The conflict entry is removed; local and merge outcomes are
	// marked pending so the next cycle pushes them.
	Resolve(ctx context.Context, conflictID string, strategy models.ResolutionStrategy) (models.SyncableRecord, error)
}

// StatsService produces point-in-time snapshots of the sync state.
type StatsService interface {
	Stats(ctx context.Context) (models.SyncStats, error)
}
