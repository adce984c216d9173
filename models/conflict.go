// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// ConflictType classifies how a version race was detected.
type ConflictType string

const (
	// ConflictVersion marks a plain version mismatch.
	ConflictVersion ConflictType = "version"

	// ConflictConcurrent marks concurrent edits: the remote version
	// advanced while the local record still held unsynced changes.
	ConflictConcurrent ConflictType = "concurrent"

	// ConflictDeleted marks a race between an edit and a deletion.
	ConflictDeleted ConflictType = "deleted"
)

// ResolutionStrategy selects how a SyncConflict is settled.
type ResolutionStrategy string

const (
	// ResolveLocal keeps the local payload and re-pushes it with a
	// version above both sides, forcing the server to converge.
	ResolveLocal ResolutionStrategy = "local"

	// ResolveRemote discards local changes and adopts the remote record.
	ResolveRemote ResolutionStrategy = "remote"

	// ResolveMerge shallow-merges remote and local payloads with local
	// keys winning on collision. Nested structures are not merged.
	ResolveMerge ResolutionStrategy = "merge"
)

// Valid reports whether s is a known resolution strategy.
func (s ResolutionStrategy) Valid() bool {
	switch s {
	case ResolveLocal, ResolveRemote, ResolveMerge:
		return true
	}
	return false
}

// SyncConflict is a first-class pending-resolution entity created during
// the pull phase when a remote record outpaces a still-pending local one.
// It carries both sides in full so a resolution UI can render them.
type SyncConflict struct {
	// ID is the unique identifier of the conflict entity.
	ID string `json:"id"`

	// RecordID is the identifier of the contested record.
	RecordID string `json:"record_id"`

	// LocalRecord is the local state at detection time.
	LocalRecord SyncableRecord `json:"local_record"`

	// RemoteRecord is the incoming remote state that triggered detection.
	RemoteRecord SyncableRecord `json:"remote_record"`

	// ConflictType classifies the race.
	ConflictType ConflictType `json:"conflict_type"`

	// DetectedAt is the time the pull phase recorded the conflict.
	DetectedAt time.Time `json:"detected_at"`
}
