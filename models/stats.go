// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// SyncStats is the dashboard-facing snapshot of engine state. Pending,
// error, and conflict counts let a human tell that data has not reached
// the server yet.
type SyncStats struct {
	// TotalRecords counts every persisted record, tombstones included.
	TotalRecords int64 `json:"total_records"`

	// PendingRecords counts records awaiting acknowledgement.
	PendingRecords int64 `json:"pending_records"`

	// ErrorRecords counts records whose last push attempt failed.
	ErrorRecords int64 `json:"error_records"`

	// Conflicts counts unresolved SyncConflict entities.
	Conflicts int64 `json:"conflicts"`

	// LastSyncTime is the completion time of the last sync cycle, or the
	// zero time if no cycle has completed yet.
	LastSyncTime time.Time `json:"last_sync_time"`

	// SyncInFlight reports whether a sync cycle is currently running.
	SyncInFlight bool `json:"sync_in_flight"`
}
