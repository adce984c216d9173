// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-dash-sync/internal/events"
	"github.com/MKhiriev/go-dash-sync/internal/logger"
	"github.com/MKhiriev/go-dash-sync/internal/store"
	"github.com/MKhiriev/go-dash-sync/internal/utils"
	"github.com/MKhiriev/go-dash-sync/models"
)

type recordService struct {
	records store.RecordRepository
	bus     *events.Bus

	owner    string
	deviceID string

	now func() time.Time

	logger *logger.Logger
}

func NewRecordService(records store.RecordRepository, bus *events.Bus, owner, deviceID string, log *logger.Logger) RecordService {
	return &recordService{
		records:  records,
		bus:      bus,
		owner:    owner,
		deviceID: deviceID,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   log,
	}
}

// Write implements [RecordService]. Writing over a tombstone revives the
// record: the version keeps climbing from the tombstone's version, so remote
// replicas see the revival as a normal update. Writing a payload whose
// content hash equals the stored one is a no-op: the existing record is
// returned unchanged, no version bump, no sync cycle.
func (r *recordService) Write(ctx context.Context, recordType models.RecordType, entityID string, payload models.Payload) (models.SyncableRecord, error) {
	log := logger.FromContext(ctx)

	if !recordType.Valid() {
		return models.SyncableRecord{}, fmt.Errorf("%w: %q", ErrInvalidRecordType, recordType)
	}
	if entityID == "" {
		return models.SyncableRecord{}, ErrEmptyEntityID
	}

	id := models.RecordID(recordType, entityID)
	hash := utils.ContentHash(payload)

	version := int64(1)
	existing, err := r.records.Get(ctx, id)
	switch {
	case err == nil:
		if existing.ContentHash == hash {
			log.Debug().
				Str("func", "recordService.Write").
				Str("record_id", id).
				Msg("payload unchanged, write skipped")
			return existing, nil
		}
		version = existing.Version + 1
	case !errors.Is(err, store.ErrRecordNotFound):
		return models.SyncableRecord{}, fmt.Errorf("load existing record %s: %w", id, err)
	}

	record := models.SyncableRecord{
		ID:           id,
		Type:         recordType,
		Payload:      payload,
		LastModified: r.now(),
		Version:      version,
		Owner:        r.owner,
		OriginDevice: r.deviceID,
		SyncStatus:   models.StatusPending,
		ContentHash:  hash,
	}

	if err = r.records.Save(ctx, record); err != nil {
		return models.SyncableRecord{}, fmt.Errorf("save record %s: %w", id, err)
	}

	log.Debug().
		Str("func", "recordService.Write").
		Str("record_id", id).
		Int64("version", version).
		Msg("record written")

	r.bus.Publish(events.Event{Type: events.DataChanged, Payload: record})
	return record, nil
}

// Delete implements [RecordService].
func (r *recordService) Delete(ctx context.Context, id string) error {
	existing, err := r.records.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load record %s for deletion: %w", id, err)
	}
	if existing.IsTombstone() {
		return nil
	}

	tombstone := existing
	tombstone.Payload = nil
	tombstone.Version = existing.Version + 1
	tombstone.LastModified = r.now()
	tombstone.OriginDevice = r.deviceID
	tombstone.SyncStatus = models.StatusPending
	tombstone.ContentHash = models.TombstoneHash

	if err = r.records.Save(ctx, tombstone); err != nil {
		return fmt.Errorf("save tombstone %s: %w", id, err)
	}

	r.bus.Publish(events.Event{Type: events.DataDeleted, Payload: tombstone})
	return nil
}

// Read implements [RecordService].
func (r *recordService) Read(ctx context.Context, id string) (models.SyncableRecord, error) {
	record, err := r.records.Get(ctx, id)
	if err != nil {
		return models.SyncableRecord{}, err
	}
	if record.IsTombstone() {
		return models.SyncableRecord{}, store.ErrRecordNotFound
	}
	return record, nil
}

// ReadAll implements [RecordService].
func (r *recordService) ReadAll(ctx context.Context, recordType models.RecordType) ([]models.SyncableRecord, error) {
	if !recordType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRecordType, recordType)
	}
	return r.records.GetByType(ctx, recordType)
}
