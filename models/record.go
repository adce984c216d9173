// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"fmt"
	"time"
)

// RecordType defines the semantic kind of a synced record.
// The value is part of the record identifier and therefore stable
// across devices and server round-trips.
type RecordType string

const (
	// Document represents a dashboard document body.
	Document RecordType = "document"

	// Conversation represents a stored conversation transcript.
	Conversation RecordType = "conversation"

	// Preference represents a user preference map (theme, layout, …).
	Preference RecordType = "preference"

	// Search represents a saved search definition.
	Search RecordType = "search"

	// Annotation represents a user annotation attached to other content.
	Annotation RecordType = "annotation"
)

// Valid reports whether t is one of the known record types.
func (t RecordType) Valid() bool {
	switch t {
	case Document, Conversation, Preference, Search, Annotation:
		return true
	}
	return false
}

// SyncStatus describes where a record stands in the sync lifecycle.
type SyncStatus string

const (
	// StatusPending marks a record with local changes the server has not
	// acknowledged yet. Pending records are included in the next push batch.
	StatusPending SyncStatus = "pending"

	// StatusSynced marks a record whose current version is durably stored
	// on the server.
	StatusSynced SyncStatus = "synced"

	// StatusConflict marks a record frozen behind an unresolved
	// SyncConflict. The local copy is left untouched until resolution.
	StatusConflict SyncStatus = "conflict"

	// StatusError marks a record whose last push attempt failed. Error
	// records are retried together with pending ones on the next cycle.
	StatusError SyncStatus = "error"
)

// TombstoneHash is the content hash assigned to deletion tombstones,
// whose payload is absent by definition.
const TombstoneHash = "deleted"

// Payload is the structured body of a record. Payloads are treated as flat
// maps by the conflict merge strategy; nested values are carried opaquely.
type Payload map[string]any

// SyncableRecord is the unit of synchronization: one versioned, owned,
// device-stamped entity persisted locally and mirrored to the server.
type SyncableRecord struct {
	// ID is the stable identifier, unique per (type, logical entity),
	// in the form "{type}_{entityID}". See RecordID.
	ID string `json:"id"`

	// Type is the semantic kind of the record.
	Type RecordType `json:"type"`

	// Payload is the record body, or nil for a deletion tombstone.
	// Deletions propagate through sync like any other mutation, so they
	// are modeled as a payload state rather than a row removal.
	Payload Payload `json:"payload"`

	// LastModified is the timestamp of the most recent local mutation.
	LastModified time.Time `json:"last_modified"`

	// Version increases by exactly one on every local mutation, starting
	// at 1. Two writes to the same ID from the same device never produce
	// the same version.
	Version int64 `json:"version"`

	// Owner identifies the authenticated user the record belongs to.
	Owner string `json:"owner"`

	// OriginDevice identifies the installation that produced the
	// mutation. Generated once per device and persisted in metadata.
	OriginDevice string `json:"origin_device"`

	// SyncStatus is the record's position in the sync state machine.
	SyncStatus SyncStatus `json:"sync_status"`

	// ContentHash is a digest of Payload, used to detect no-op writes and
	// to fingerprint merge results. Tombstones carry TombstoneHash.
	ContentHash string `json:"content_hash"`
}

// RecordID builds the stable record identifier for a logical entity.
func RecordID(t RecordType, entityID string) string {
	return fmt.Sprintf("%s_%s", t, entityID)
}

// IsTombstone reports whether the record represents a propagated deletion.
func (r *SyncableRecord) IsTombstone() bool {
	return r.Payload == nil
}
