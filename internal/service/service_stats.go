package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-dash-sync/internal/store"
	"github.com/MKhiriev/go-dash-sync/models"
)

type statsService struct {
	records   store.RecordRepository
	conflicts store.ConflictRepository
	metadata  store.MetadataRepository
	engine    SyncEngine
}

func NewStatsService(records store.RecordRepository, conflicts store.ConflictRepository, metadata store.MetadataRepository, engine SyncEngine) StatsService {
	return &statsService{
		records:   records,
		conflicts: conflicts,
		metadata:  metadata,
		engine:    engine,
	}
}

// Stats implements [StatsService]. The snapshot is assembled from several
// queries without a transaction; counts may be slightly out of step with each
// other while a sync cycle is running.
func (s *statsService) Stats(ctx context.Context) (models.SyncStats, error) {
	total, err := s.records.Count(ctx)
	if err != nil {
		return models.SyncStats{}, fmt.Errorf("count records: %w", err)
	}

	pending, err := s.records.CountByStatus(ctx, models.StatusPending)
	if err != nil {
		return models.SyncStats{}, fmt.Errorf("count pending records: %w", err)
	}

	failed, err := s.records.CountByStatus(ctx, models.StatusError)
	if err != nil {
		return models.SyncStats{}, fmt.Errorf("count errored records: %w", err)
	}

	conflicts, err := s.conflicts.Count(ctx)
	if err != nil {
		return models.SyncStats{}, fmt.Errorf("count conflicts: %w", err)
	}

	lastSync, err := s.lastSyncTime(ctx)
	if err != nil {
		return models.SyncStats{}, err
	}

	return models.SyncStats{
		TotalRecords:   total,
		PendingRecords: pending,
		ErrorRecords:   failed,
		Conflicts:      conflicts,
		LastSyncTime:   lastSync,
		SyncInFlight:   s.engine.InFlight(),
	}, nil
}

func (s *statsService) lastSyncTime(ctx context.Context) (time.Time, error) {
	value, err := s.metadata.Get(ctx, models.MetaLastSyncTime)
	if errors.Is(err, store.ErrMetadataNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read last sync time: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse last sync time %q: %w", value, err)
	}
	return ts, nil
}
