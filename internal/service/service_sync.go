// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/go-dash-sync/internal/adapter"
	"github.com/MKhiriev/go-dash-sync/internal/config"
	"github.com/MKhiriev/go-dash-sync/internal/events"
	"github.com/MKhiriev/go-dash-sync/internal/logger"
	"github.com/MKhiriev/go-dash-sync/internal/store"
	"github.com/MKhiriev/go-dash-sync/models"
)

type syncEngine struct {
	records   store.RecordRepository
	metadata  store.MetadataRepository
	conflicts ConflictManager
	adapter   adapter.ServerAdapter
	bus       *events.Bus
	cfg       config.Sync

	mu              sync.Mutex
	inFlight        bool
	online          bool
	failures        int
	suppressedUntil time.Time

	now func() time.Time

	logger *logger.Logger
}

// NewSyncEngine builds the push/pull engine. The engine starts offline; the
// connectivity watcher flips it online once the server answers a probe.
func NewSyncEngine(
	records store.RecordRepository,
	metadata store.MetadataRepository,
	conflicts ConflictManager,
	serverAdapter adapter.ServerAdapter,
	bus *events.Bus,
	cfg config.Sync,
	log *logger.Logger,
) SyncEngine {
	return &syncEngine{
		records:   records,
		metadata:  metadata,
		conflicts: conflicts,
		adapter:   serverAdapter,
		bus:       bus,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    log,
	}
}

// Sync implements [SyncEngine].
func (s *syncEngine) Sync(ctx context.Context) {
	s.run(ctx, true)
}

// TrySync implements [SyncEngine].
func (s *syncEngine) TrySync(ctx context.Context) {
	s.run(ctx, false)
}

// SetOnline implements [SyncEngine].
func (s *syncEngine) SetOnline(online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = online
}

// InFlight implements [SyncEngine].
func (s *syncEngine) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// run executes one sync cycle. The in-flight guard makes overlapping triggers
// no-ops rather than queueing them: a cycle already running will pick up any
// state the trigger was announcing.
func (s *syncEngine) run(ctx context.Context, manual bool) {
	log := logger.FromContext(ctx)

	if !s.begin(manual) {
		return
	}
	defer s.finish()

	s.bus.Publish(events.Event{Type: events.SyncStarted})

	pushed := s.pushPending(ctx)

	pulled, conflicted, err := s.pullRemote(ctx)
	if err != nil {
		delay := s.recordFailure()
		log.Err(err).
			Str("func", "syncEngine.run").
			Dur("retry_after", delay).
			Msg("sync cycle aborted on pull failure")
		s.bus.Publish(events.Event{Type: events.SyncError, Payload: err})
		return
	}

	if err = s.metadata.Set(ctx, models.MetaLastSyncTime, s.now().Format(time.RFC3339Nano)); err != nil {
		delay := s.recordFailure()
		log.Err(err).
			Str("func", "syncEngine.run").
			Dur("retry_after", delay).
			Msg("failed to persist last sync time")
		s.bus.Publish(events.Event{Type: events.SyncError, Payload: err})
		return
	}

	s.resetFailures()

	summary := events.SyncSummary{Pushed: pushed, Pulled: pulled, Conflicts: conflicted}
	log.Info().
		Str("func", "syncEngine.run").
		Int("pushed", summary.Pushed).
		Int("pulled", summary.Pulled).
		Int("conflicts", summary.Conflicts).
		Msg("sync cycle completed")

	s.bus.Publish(events.Event{Type: events.SyncCompleted, Payload: summary})
}

// begin claims the in-flight slot. Returns false when the engine is offline,
// a cycle is already running, or an automated trigger lands inside the
// failure backoff window.
func (s *syncEngine) begin(manual bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight || !s.online {
		return false
	}
	if !manual && s.now().Before(s.suppressedUntil) {
		return false
	}

	s.inFlight = true
	return true
}

func (s *syncEngine) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
}

// pushPending uploads every pending or previously failed record. Push
// failures are per-record: the record is parked in error status and retried
// next cycle, the rest of the batch continues.
func (s *syncEngine) pushPending(ctx context.Context) int {
	log := logger.FromContext(ctx)

	batch, err := s.records.GetByStatus(ctx, models.StatusPending, models.StatusError)
	if err != nil {
		log.Err(err).
			Str("func", "syncEngine.pushPending").
			Msg("failed to load push batch")
		return 0
	}

	pushed := 0
	for _, record := range batch {
		if err = s.adapter.Push(ctx, record); err != nil {
			log.Err(err).
				Str("func", "syncEngine.pushPending").
				Str("record_id", record.ID).
				Msg("push failed, record parked for retry")
			s.setStatus(ctx, record, models.StatusError)
			continue
		}

		s.setStatus(ctx, record, models.StatusSynced)
		pushed++
	}

	return pushed
}

// pullRemote fetches records changed since the last successful sync and folds
// each one into local storage through the conflict manager.
func (s *syncEngine) pullRemote(ctx context.Context) (pulled, conflicted int, err error) {
	log := logger.FromContext(ctx)

	remote, err := s.adapter.Pull(ctx, s.lastSyncTime(ctx))
	if err != nil {
		return 0, 0, fmt.Errorf("pull remote records: %w", err)
	}

	for _, record := range remote {
		isConflict, err := s.conflicts.Reconcile(ctx, record)
		if err != nil {
			log.Err(err).
				Str("func", "syncEngine.pullRemote").
				Str("record_id", record.ID).
				Msg("failed to reconcile pulled record")
			continue
		}
		pulled++
		if isConflict {
			conflicted++
		}
	}

	return pulled, conflicted, nil
}

// lastSyncTime reads the checkpoint of the previous successful cycle. Missing
// or unparseable metadata degrades to a full pull.
func (s *syncEngine) lastSyncTime(ctx context.Context) time.Time {
	value, err := s.metadata.Get(ctx, models.MetaLastSyncTime)
	if errors.Is(err, store.ErrMetadataNotFound) {
		return time.Time{}
	}
	if err != nil {
		s.logger.Err(err).
			Str("func", "syncEngine.lastSyncTime").
			Msg("failed to read last sync time, pulling full set")
		return time.Time{}
	}

	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		s.logger.Err(err).
			Str("func", "syncEngine.lastSyncTime").
			Str("value", value).
			Msg("malformed last sync time, pulling full set")
		return time.Time{}
	}
	return ts
}

// setStatus flips the record's status only while it still carries the version
// that entered the push batch. A local write landing mid-push bumps the
// version, the flip is skipped, and the fresh version stays pending for the
// next cycle instead of being stamped with an outcome it never had.
func (s *syncEngine) setStatus(ctx context.Context, record models.SyncableRecord, status models.SyncStatus) {
	log := logger.FromContext(ctx)

	applied, err := s.records.SetStatusIfVersion(ctx, record.ID, record.Version, status)
	if err != nil {
		log.Err(err).
			Str("func", "syncEngine.setStatus").
			Str("record_id", record.ID).
			Str("status", string(status)).
			Msg("failed to update record status")
		return
	}
	if !applied {
		log.Debug().
			Str("func", "syncEngine.setStatus").
			Str("record_id", record.ID).
			Int64("pushed_version", record.Version).
			Msg("record changed during push, new version left for next cycle")
	}
}

// recordFailure extends the automated-trigger suppression window with capped
// exponential growth and returns the applied delay. Manual syncs ignore the
// window, so a user retry is never locked out.
func (s *syncEngine) recordFailure() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	delay := s.cfg.PullBackoffInitial
	for i := 0; i < s.failures && delay < s.cfg.PullBackoffMax; i++ {
		delay *= 2
	}
	if delay > s.cfg.PullBackoffMax {
		delay = s.cfg.PullBackoffMax
	}

	s.failures++
	s.suppressedUntil = s.now().Add(delay)
	return delay
}

func (s *syncEngine) resetFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = 0
	s.suppressedUntil = time.Time{}
}
