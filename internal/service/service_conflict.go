// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dario.cat/mergo"
	"github.com/MKhiriev/go-dash-sync/internal/events"
	"github.com/MKhiriev/go-dash-sync/internal/logger"
	"github.com/MKhiriev/go-dash-sync/internal/store"
	"github.com/MKhiriev/go-dash-sync/internal/utils"
	"github.com/MKhiriev/go-dash-sync/models"
)

type conflictManager struct {
	records   store.RecordRepository
	conflicts store.ConflictRepository
	bus       *events.Bus
	uuid      *utils.UUIDGenerator

	now func() time.Time

	logger *logger.Logger
}

func NewConflictManager(records store.RecordRepository, conflicts store.ConflictRepository, bus *events.Bus, log *logger.Logger) ConflictManager {
	return &conflictManager{
		records:   records,
		conflicts: conflicts,
		bus:       bus,
		uuid:      utils.NewUUIDGenerator(),
		now:       func() time.Time { return time.Now().UTC() },
		logger:    log,
	}
}

// Reconcile implements [ConflictManager]. The decision table:
//
//	no local record            -> adopt remote as synced
//	remote version == local    -> no-op
//	remote version <  local    -> keep local (stale pull), log only
//	remote version >  local:
//	    local synced           -> adopt remote as synced
//	    local pending/error/
//	    conflict               -> record a conflict, freeze local
//
// Adopting a remote tombstone deletes the record's payload locally; the row
// itself stays so later pulls with the same tombstone remain no-ops.
func (c *conflictManager) Reconcile(ctx context.Context, remote models.SyncableRecord) (bool, error) {
	log := logger.FromContext(ctx)

	local, err := c.records.Get(ctx, remote.ID)
	if errors.Is(err, store.ErrRecordNotFound) {
		return false, c.adopt(ctx, remote, 0)
	}
	if err != nil {
		return false, fmt.Errorf("load local record %s: %w", remote.ID, err)
	}

	switch {
	case remote.Version == local.Version:
		return false, nil

	case remote.Version < local.Version:
		log.Debug().
			Str("func", "conflictManager.Reconcile").
			Str("record_id", remote.ID).
			Int64("local_version", local.Version).
			Int64("remote_version", remote.Version).
			Msg("ignoring stale remote record")
		return false, nil

	case local.SyncStatus == models.StatusSynced:
		return false, c.adopt(ctx, remote, local.Version)
	}

	// remote is ahead and local carries unsynced changes. Freeze local
	// first, guarded on the version just read: if a write slipped in the
	// freeze misses and the whole decision is deferred to the next pull,
	// which will re-read the fresh local state.
	applied, err := c.records.SetStatusIfVersion(ctx, remote.ID, local.Version, models.StatusConflict)
	if err != nil {
		return false, fmt.Errorf("freeze conflicted record %s: %w", remote.ID, err)
	}
	if !applied {
		log.Debug().
			Str("func", "conflictManager.Reconcile").
			Str("record_id", remote.ID).
			Msg("local record changed during reconcile, deferred to next pull")
		return false, nil
	}

	conflict := models.SyncConflict{
		ID:           c.uuid.Generate(),
		RecordID:     remote.ID,
		LocalRecord:  local,
		RemoteRecord: remote,
		ConflictType: classifyConflict(local, remote),
		DetectedAt:   c.now(),
	}

	if err = c.conflicts.Save(ctx, conflict); err != nil {
		return false, fmt.Errorf("save conflict for %s: %w", remote.ID, err)
	}

	log.Info().
		Str("func", "conflictManager.Reconcile").
		Str("record_id", remote.ID).
		Str("conflict_type", string(conflict.ConflictType)).
		Msg("conflict detected")

	c.bus.Publish(events.Event{Type: events.ConflictDetected, Payload: conflict})
	return true, nil
}

// List implements [ConflictManager].
func (c *conflictManager) List(ctx context.Context) ([]models.SyncConflict, error) {
	return c.conflicts.GetAll(ctx)
}

// Resolve implements [ConflictManager].
func (c *conflictManager) Resolve(ctx context.Context, conflictID string, strategy models.ResolutionStrategy) (models.SyncableRecord, error) {
	log := logger.FromContext(ctx)

	if !strategy.Valid() {
		return models.SyncableRecord{}, fmt.Errorf("%w: %q", ErrInvalidResolutionStrategy, strategy)
	}

	conflict, err := c.conflicts.Get(ctx, conflictID)
	if err != nil {
		return models.SyncableRecord{}, err
	}

	resolved, err := c.applyStrategy(conflict, strategy)
	if err != nil {
		return models.SyncableRecord{}, err
	}

	// The store row still carries the snapshot's version, only frozen; a
	// local write over the frozen record bumps it. In that case the
	// snapshot no longer describes the record, so the conflict is
	// discarded and the next pull re-detects against the fresh state.
	applied, err := c.records.SaveIfVersion(ctx, resolved, conflict.LocalRecord.Version)
	if err != nil {
		return models.SyncableRecord{}, fmt.Errorf("save resolved record %s: %w", resolved.ID, err)
	}
	if !applied {
		if err = c.conflicts.Delete(ctx, conflictID); err != nil {
			return models.SyncableRecord{}, fmt.Errorf("delete stale conflict %s: %w", conflictID, err)
		}
		return models.SyncableRecord{}, fmt.Errorf("%w: %s", ErrConflictStale, conflictID)
	}
	if err = c.conflicts.Delete(ctx, conflictID); err != nil {
		return models.SyncableRecord{}, fmt.Errorf("delete settled conflict %s: %w", conflictID, err)
	}

	log.Info().
		Str("func", "conflictManager.Resolve").
		Str("record_id", resolved.ID).
		Str("strategy", string(strategy)).
		Int64("version", resolved.Version).
		Msg("conflict resolved")

	c.bus.Publish(events.Event{Type: events.ConflictResolved, Payload: resolved})
	return resolved, nil
}

// applyStrategy computes the winning record. Local and merge outcomes get a
// version above both sides and go back to pending; the remote outcome adopts
// the server record verbatim.
func (c *conflictManager) applyStrategy(conflict models.SyncConflict, strategy models.ResolutionStrategy) (models.SyncableRecord, error) {
	local, remote := conflict.LocalRecord, conflict.RemoteRecord
	next := maxVersion(local.Version, remote.Version) + 1

	switch strategy {
	case models.ResolveRemote:
		resolved := remote
		resolved.SyncStatus = models.StatusSynced
		return resolved, nil

	case models.ResolveLocal:
		resolved := local
		resolved.Version = next
		resolved.LastModified = c.now()
		resolved.SyncStatus = models.StatusPending
		resolved.ContentHash = utils.ContentHash(resolved.Payload)
		return resolved, nil

	case models.ResolveMerge:
		merged, err := mergePayloads(local.Payload, remote.Payload)
		if err != nil {
			return models.SyncableRecord{}, err
		}
		resolved := local
		resolved.Payload = merged
		resolved.Version = next
		resolved.LastModified = c.now()
		resolved.SyncStatus = models.StatusPending
		resolved.ContentHash = utils.ContentHash(merged)
		return resolved, nil

	default:
		return models.SyncableRecord{}, fmt.Errorf("%w: %q", ErrInvalidResolutionStrategy, strategy)
	}
}

// adopt stores the remote record as the local truth, guarded on the local
// version the decision was based on (0 when no local row existed). A write
// racing the adoption wins: the record turns pending again and the next pull
// re-evaluates it against the fresh local state.
func (c *conflictManager) adopt(ctx context.Context, remote models.SyncableRecord, expectedVersion int64) error {
	remote.SyncStatus = models.StatusSynced

	applied, err := c.records.SaveIfVersion(ctx, remote, expectedVersion)
	if err != nil {
		return fmt.Errorf("adopt remote record %s: %w", remote.ID, err)
	}
	if !applied {
		logger.FromContext(ctx).Debug().
			Str("func", "conflictManager.adopt").
			Str("record_id", remote.ID).
			Msg("local record changed during adoption, deferred to next pull")
	}
	return nil
}

// mergePayloads shallow-merges the two sides with local values winning on key
// collisions. A tombstone on either side makes the merge a tombstone: a
// deletion is not a value that can lose a key race.
func mergePayloads(local, remote models.Payload) (models.Payload, error) {
	if local == nil || remote == nil {
		return nil, nil
	}

	merged := make(models.Payload, len(remote))
	for k, v := range remote {
		merged[k] = v
	}
	if err := mergo.Merge(&merged, local, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("merge payloads: %w", err)
	}
	return merged, nil
}

func classifyConflict(local, remote models.SyncableRecord) models.ConflictType {
	switch {
	case local.IsTombstone() || remote.IsTombstone():
		return models.ConflictDeleted
	case local.SyncStatus == models.StatusPending:
		return models.ConflictConcurrent
	default:
		return models.ConflictVersion
	}
}

func maxVersion(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
