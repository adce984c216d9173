// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MKhiriev/go-dash-sync/internal/config"
	"github.com/MKhiriev/go-dash-sync/internal/events"
	"github.com/MKhiriev/go-dash-sync/internal/logger"
	"github.com/MKhiriev/go-dash-sync/internal/mock"
	"github.com/MKhiriev/go-dash-sync/internal/store"
	"github.com/MKhiriev/go-dash-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testSyncCfg = config.Sync{
	PullBackoffInitial: 2 * time.Second,
	PullBackoffMax:     5 * time.Minute,
}

func newTestEngine(t *testing.T, ctrl *gomock.Controller) (
	*syncEngine,
	*mock.MockRecordRepository,
	*mock.MockMetadataRepository,
	*mock.MockConflictManager,
	*mock.MockServerAdapter,
	*events.Bus,
) {
	t.Helper()
	mockRecords := mock.NewMockRecordRepository(ctrl)
	mockMetadata := mock.NewMockMetadataRepository(ctrl)
	mockConflicts := mock.NewMockConflictManager(ctrl)
	mockAdapter := mock.NewMockServerAdapter(ctrl)
	bus := events.NewBus(logger.Nop())

	engine := NewSyncEngine(mockRecords, mockMetadata, mockConflicts, mockAdapter, bus, testSyncCfg, logger.Nop()).(*syncEngine)
	engine.now = func() time.Time { return testNow }
	engine.SetOnline(true)

	return engine, mockRecords, mockMetadata, mockConflicts, mockAdapter, bus
}

func pendingRecord(id string) models.SyncableRecord {
	return models.SyncableRecord{
		ID:         id,
		Type:       models.Document,
		Payload:    models.Payload{"title": id},
		Version:    1,
		SyncStatus: models.StatusPending,
	}
}

// ── full cycle ──────────────────────────────────────────────────────────────

func TestSyncEngine_Sync_FullCycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine, mockRecords, mockMetadata, mockConflicts, mockAdapter, bus := newTestEngine(t, ctrl)

	var started, completed []events.Event
	bus.Subscribe(events.SyncStarted, func(e events.Event) { started = append(started, e) })
	bus.Subscribe(events.SyncCompleted, func(e events.Event) { completed = append(completed, e) })

	local := pendingRecord("document_1")
	remote := pendingRecord("document_2")
	lastSync := testNow.Add(-time.Hour)

	// push phase
	mockRecords.EXPECT().
		GetByStatus(gomock.Any(), models.StatusPending, models.StatusError).
		Return([]models.SyncableRecord{local}, nil)
	mockAdapter.EXPECT().Push(gomock.Any(), local).Return(nil)
	mockRecords.EXPECT().
		SetStatusIfVersion(gomock.Any(), "document_1", int64(1), models.StatusSynced).
		Return(true, nil)

	// pull phase
	mockMetadata.EXPECT().
		Get(gomock.Any(), models.MetaLastSyncTime).
		Return(lastSync.Format(time.RFC3339Nano), nil)
	mockAdapter.EXPECT().Pull(gomock.Any(), lastSync).Return([]models.SyncableRecord{remote}, nil)
	mockConflicts.EXPECT().Reconcile(gomock.Any(), remote).Return(false, nil)

	// checkpoint
	mockMetadata.EXPECT().
		Set(gomock.Any(), models.MetaLastSyncTime, testNow.Format(time.RFC3339Nano)).
		Return(nil)

	engine.Sync(context.Background())

	require.Len(t, started, 1)
	require.Len(t, completed, 1)
	summary, ok := completed[0].Payload.(events.SyncSummary)
	require.True(t, ok)
	assert.Equal(t, events.SyncSummary{Pushed: 1, Pulled: 1, Conflicts: 0}, summary)
	assert.False(t, engine.InFlight())
}

func TestSyncEngine_Sync_OfflineIsNoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine, _, _, _, _, bus := newTestEngine(t, ctrl)
	engine.SetOnline(false)

	var started int
	bus.Subscribe(events.SyncStarted, func(events.Event) { started++ })

	engine.Sync(context.Background())

	assert.Zero(t, started)
}

func TestSyncEngine_Sync_InFlightGuardDropsTrigger(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine, _, _, _, _, bus := newTestEngine(t, ctrl)

	var started int
	bus.Subscribe(events.SyncStarted, func(events.Event) { started++ })

	engine.mu.Lock()
	engine.inFlight = true
	engine.mu.Unlock()

	engine.Sync(context.Background())

	assert.Zero(t, started)
}

// ── push phase ──────────────────────────────────────────────────────────────

func TestSyncEngine_Sync_PushFailureIsPerRecord(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine, mockRecords, mockMetadata, _, mockAdapter, bus := newTestEngine(t, ctrl)

	var completed []events.Event
	bus.Subscribe(events.SyncCompleted, func(e events.Event) { completed = append(completed, e) })

	bad := pendingRecord("document_bad")
	good := pendingRecord("document_good")

	mockRecords.EXPECT().
		GetByStatus(gomock.Any(), models.StatusPending, models.StatusError).
		Return([]models.SyncableRecord{bad, good}, nil)
	mockAdapter.EXPECT().Push(gomock.Any(), bad).Return(errors.New("network blip"))
	mockRecords.EXPECT().
		SetStatusIfVersion(gomock.Any(), "document_bad", int64(1), models.StatusError).
		Return(true, nil)
	mockAdapter.EXPECT().Push(gomock.Any(), good).Return(nil)
	mockRecords.EXPECT().
		SetStatusIfVersion(gomock.Any(), "document_good", int64(1), models.StatusSynced).
		Return(true, nil)

	mockMetadata.EXPECT().
		Get(gomock.Any(), models.MetaLastSyncTime).
		Return("", store.ErrMetadataNotFound)
	mockAdapter.EXPECT().Pull(gomock.Any(), time.Time{}).Return(nil, nil)
	mockMetadata.EXPECT().Set(gomock.Any(), models.MetaLastSyncTime, gomock.Any()).Return(nil)

	engine.Sync(context.Background())

	// one failed push does not abort the cycle
	require.Len(t, completed, 1)
	assert.Equal(t, events.SyncSummary{Pushed: 1}, completed[0].Payload)
}

// A local write landing between the batch read and the status flip bumps the
// stored version, so the flip must miss and the fresh version must stay
// pending for the next cycle instead of being stamped synced.
func TestSyncEngine_Sync_WriteDuringPushStaysPending(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine, mockRecords, mockMetadata, _, mockAdapter, bus := newTestEngine(t, ctrl)

	var completed []events.Event
	bus.Subscribe(events.SyncCompleted, func(e events.Event) { completed = append(completed, e) })

	inFlight := pendingRecord("document_1") // version 1 enters the batch

	mockRecords.EXPECT().
		GetByStatus(gomock.Any(), models.StatusPending, models.StatusError).
		Return([]models.SyncableRecord{inFlight}, nil)
	mockAdapter.EXPECT().
		Push(gomock.Any(), inFlight).
		DoAndReturn(func(context.Context, models.SyncableRecord) error {
			// version 2 is written concurrently while version 1 is on the
			// wire; the store now holds {Version: 2, SyncStatus: pending}
			return nil
		})
	// the guarded flip carries the pushed version and reports that the row
	// moved on; no unconditional status update may happen
	mockRecords.EXPECT().
		SetStatusIfVersion(gomock.Any(), "document_1", int64(1), models.StatusSynced).
		Return(false, nil)

	mockMetadata.EXPECT().
		Get(gomock.Any(), models.MetaLastSyncTime).
		Return("", store.ErrMetadataNotFound)
	mockAdapter.EXPECT().Pull(gomock.Any(), time.Time{}).Return(nil, nil)
	mockMetadata.EXPECT().Set(gomock.Any(), models.MetaLastSyncTime, gomock.Any()).Return(nil)

	engine.Sync(context.Background())

	// the cycle still completes; version 2 is simply next cycle's work
	require.Len(t, completed, 1)
	assert.Equal(t, events.SyncSummary{Pushed: 1}, completed[0].Payload)
}

// ── pull phase ──────────────────────────────────────────────────────────────

func TestSyncEngine_Sync_PullFailureKeepsCheckpoint(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine, mockRecords, mockMetadata, _, mockAdapter, bus := newTestEngine(t, ctrl)

	var failed []events.Event
	bus.Subscribe(events.SyncError, func(e events.Event) { failed = append(failed, e) })

	mockRecords.EXPECT().
		GetByStatus(gomock.Any(), models.StatusPending, models.StatusError).
		Return(nil, nil)
	mockMetadata.EXPECT().
		Get(gomock.Any(), models.MetaLastSyncTime).
		Return("", store.ErrMetadataNotFound)
	mockAdapter.EXPECT().Pull(gomock.Any(), time.Time{}).Return(nil, errors.New("server unreachable"))
	// note: no metadata.Set expectation, the checkpoint must stay put

	engine.Sync(context.Background())

	require.Len(t, failed, 1)

	engine.mu.Lock()
	defer engine.mu.Unlock()
	assert.Equal(t, 1, engine.failures)
	assert.Equal(t, testNow.Add(2*time.Second), engine.suppressedUntil)
}

func TestSyncEngine_Sync_CountsConflicts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine, mockRecords, mockMetadata, mockConflicts, mockAdapter, bus := newTestEngine(t, ctrl)

	var completed []events.Event
	bus.Subscribe(events.SyncCompleted, func(e events.Event) { completed = append(completed, e) })

	clean := pendingRecord("document_clean")
	raced := pendingRecord("document_raced")

	mockRecords.EXPECT().
		GetByStatus(gomock.Any(), models.StatusPending, models.StatusError).
		Return(nil, nil)
	mockMetadata.EXPECT().
		Get(gomock.Any(), models.MetaLastSyncTime).
		Return("", store.ErrMetadataNotFound)
	mockAdapter.EXPECT().Pull(gomock.Any(), time.Time{}).Return([]models.SyncableRecord{clean, raced}, nil)
	mockConflicts.EXPECT().Reconcile(gomock.Any(), clean).Return(false, nil)
	mockConflicts.EXPECT().Reconcile(gomock.Any(), raced).Return(true, nil)
	mockMetadata.EXPECT().Set(gomock.Any(), models.MetaLastSyncTime, gomock.Any()).Return(nil)

	engine.Sync(context.Background())

	require.Len(t, completed, 1)
	assert.Equal(t, events.SyncSummary{Pulled: 2, Conflicts: 1}, completed[0].Payload)
}

// ── backoff ─────────────────────────────────────────────────────────────────

func TestSyncEngine_TrySync_RespectsBackoffWindow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine, _, _, _, _, bus := newTestEngine(t, ctrl)

	var started int
	bus.Subscribe(events.SyncStarted, func(events.Event) { started++ })

	engine.mu.Lock()
	engine.suppressedUntil = testNow.Add(time.Minute)
	engine.mu.Unlock()

	engine.TrySync(context.Background())
	assert.Zero(t, started)
}

func TestSyncEngine_Sync_ManualBypassesBackoffWindow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine, mockRecords, mockMetadata, _, mockAdapter, bus := newTestEngine(t, ctrl)

	var started int
	bus.Subscribe(events.SyncStarted, func(events.Event) { started++ })

	engine.mu.Lock()
	engine.suppressedUntil = testNow.Add(time.Minute)
	engine.mu.Unlock()

	mockRecords.EXPECT().
		GetByStatus(gomock.Any(), models.StatusPending, models.StatusError).
		Return(nil, nil)
	mockMetadata.EXPECT().
		Get(gomock.Any(), models.MetaLastSyncTime).
		Return("", store.ErrMetadataNotFound)
	mockAdapter.EXPECT().Pull(gomock.Any(), time.Time{}).Return(nil, nil)
	mockMetadata.EXPECT().Set(gomock.Any(), models.MetaLastSyncTime, gomock.Any()).Return(nil)

	engine.Sync(context.Background())
	assert.Equal(t, 1, started)
}

func TestSyncEngine_BackoffDoublesAndCaps(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine, _, _, _, _, _ := newTestEngine(t, ctrl)

	assert.Equal(t, 2*time.Second, engine.recordFailure())
	assert.Equal(t, 4*time.Second, engine.recordFailure())
	assert.Equal(t, 8*time.Second, engine.recordFailure())

	// drive it far past the cap
	for i := 0; i < 10; i++ {
		engine.recordFailure()
	}
	assert.Equal(t, 5*time.Minute, engine.recordFailure())
}

func TestSyncEngine_SuccessResetsBackoff(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine, mockRecords, mockMetadata, _, mockAdapter, _ := newTestEngine(t, ctrl)

	engine.recordFailure()
	engine.recordFailure()

	mockRecords.EXPECT().
		GetByStatus(gomock.Any(), models.StatusPending, models.StatusError).
		Return(nil, nil)
	mockMetadata.EXPECT().
		Get(gomock.Any(), models.MetaLastSyncTime).
		Return("", store.ErrMetadataNotFound)
	mockAdapter.EXPECT().Pull(gomock.Any(), time.Time{}).Return(nil, nil)
	mockMetadata.EXPECT().Set(gomock.Any(), models.MetaLastSyncTime, gomock.Any()).Return(nil)

	engine.Sync(context.Background())

	engine.mu.Lock()
	defer engine.mu.Unlock()
	assert.Zero(t, engine.failures)
	assert.True(t, engine.suppressedUntil.IsZero())
}

// ── lastSyncTime ────────────────────────────────────────────────────────────

func TestSyncEngine_MalformedCheckpointPullsFullSet(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine, _, mockMetadata, _, _, _ := newTestEngine(t, ctrl)

	mockMetadata.EXPECT().
		Get(gomock.Any(), models.MetaLastSyncTime).
		Return("not-a-timestamp", nil)

	assert.True(t, engine.lastSyncTime(context.Background()).IsZero())
}
