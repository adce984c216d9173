// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MKhiriev/go-dash-sync/internal/events"
	"github.com/MKhiriev/go-dash-sync/internal/logger"
	"github.com/MKhiriev/go-dash-sync/internal/mock"
	"github.com/MKhiriev/go-dash-sync/internal/store"
	"github.com/MKhiriev/go-dash-sync/internal/utils"
	"github.com/MKhiriev/go-dash-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testNow = time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

func newTestRecordSvc(t *testing.T, ctrl *gomock.Controller) (*recordService, *mock.MockRecordRepository, *events.Bus) {
	t.Helper()
	mockRepo := mock.NewMockRecordRepository(ctrl)
	bus := events.NewBus(logger.Nop())

	svc := NewRecordService(mockRepo, bus, "alice", "device-1", logger.Nop()).(*recordService)
	svc.now = func() time.Time { return testNow }

	return svc, mockRepo, bus
}

// ── Write ───────────────────────────────────────────────────────────────────

func TestRecordService_Write_NewRecord(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, bus := newTestRecordSvc(t, ctrl)

	var published []events.Event
	bus.Subscribe(events.DataChanged, func(e events.Event) { published = append(published, e) })

	mockRepo.EXPECT().
		Get(gomock.Any(), "document_42").
		Return(models.SyncableRecord{}, store.ErrRecordNotFound)

	var saved models.SyncableRecord
	mockRepo.EXPECT().
		Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r models.SyncableRecord) error {
			saved = r
			return nil
		})

	got, err := svc.Write(context.Background(), models.Document, "42", models.Payload{"title": "report"})

	require.NoError(t, err)
	assert.Equal(t, "document_42", got.ID)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, models.StatusPending, got.SyncStatus)
	assert.Equal(t, "alice", got.Owner)
	assert.Equal(t, "device-1", got.OriginDevice)
	assert.Equal(t, testNow, got.LastModified)
	assert.NotEmpty(t, got.ContentHash)
	assert.NotEqual(t, models.TombstoneHash, got.ContentHash)

	assert.Equal(t, saved, got)
	require.Len(t, published, 1)
	assert.Equal(t, got, published[0].Payload)
}

func TestRecordService_Write_UpdateIncrementsVersion(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, _ := newTestRecordSvc(t, ctrl)

	mockRepo.EXPECT().
		Get(gomock.Any(), "preference_theme").
		Return(models.SyncableRecord{ID: "preference_theme", Version: 4, SyncStatus: models.StatusSynced}, nil)
	mockRepo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

	got, err := svc.Write(context.Background(), models.Preference, "theme", models.Payload{"mode": "dark"})

	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Version)
	assert.Equal(t, models.StatusPending, got.SyncStatus)
}

// Re-writing a payload identical to the stored one is detected through the
// content hash: no version bump, no save, no change event. Versions stay
// monotonic because nothing is written at all.
func TestRecordService_Write_IdenticalPayloadIsNoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, bus := newTestRecordSvc(t, ctrl)

	var published []events.Event
	bus.Subscribe(events.DataChanged, func(e events.Event) { published = append(published, e) })

	payload := models.Payload{"mode": "dark"}
	existing := models.SyncableRecord{
		ID:          "preference_theme",
		Type:        models.Preference,
		Payload:     payload,
		Version:     4,
		SyncStatus:  models.StatusSynced,
		ContentHash: utils.ContentHash(payload),
	}
	mockRepo.EXPECT().Get(gomock.Any(), "preference_theme").Return(existing, nil)
	// no Save expectation: the write must short-circuit

	got, err := svc.Write(context.Background(), models.Preference, "theme", models.Payload{"mode": "dark"})

	require.NoError(t, err)
	assert.Equal(t, existing, got)
	assert.Empty(t, published)
}

func TestRecordService_Write_RevivesTombstone(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, _ := newTestRecordSvc(t, ctrl)

	tombstone := models.SyncableRecord{
		ID:          "document_42",
		Version:     7,
		ContentHash: models.TombstoneHash,
	}
	mockRepo.EXPECT().Get(gomock.Any(), "document_42").Return(tombstone, nil)
	mockRepo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

	got, err := svc.Write(context.Background(), models.Document, "42", models.Payload{"title": "revived"})

	require.NoError(t, err)
	assert.Equal(t, int64(8), got.Version)
	assert.False(t, got.IsTombstone())
}

func TestRecordService_Write_InvalidType(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, _, _ := newTestRecordSvc(t, ctrl)

	_, err := svc.Write(context.Background(), "bookmark", "1", models.Payload{})
	assert.ErrorIs(t, err, ErrInvalidRecordType)
}

func TestRecordService_Write_EmptyEntityID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, _, _ := newTestRecordSvc(t, ctrl)

	_, err := svc.Write(context.Background(), models.Document, "", models.Payload{})
	assert.ErrorIs(t, err, ErrEmptyEntityID)
}

func TestRecordService_Write_SaveError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, bus := newTestRecordSvc(t, ctrl)

	var published int
	bus.Subscribe(events.DataChanged, func(events.Event) { published++ })

	mockRepo.EXPECT().
		Get(gomock.Any(), "document_42").
		Return(models.SyncableRecord{}, store.ErrRecordNotFound)
	mockRepo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	_, err := svc.Write(context.Background(), models.Document, "42", models.Payload{})

	require.Error(t, err)
	assert.Zero(t, published)
}

// ── Delete ──────────────────────────────────────────────────────────────────

func TestRecordService_Delete_CreatesTombstone(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, bus := newTestRecordSvc(t, ctrl)

	var published []events.Event
	bus.Subscribe(events.DataDeleted, func(e events.Event) { published = append(published, e) })

	existing := models.SyncableRecord{
		ID:          "annotation_9",
		Type:        models.Annotation,
		Payload:     models.Payload{"note": "remove me"},
		Version:     2,
		SyncStatus:  models.StatusSynced,
		ContentHash: "abc",
	}
	mockRepo.EXPECT().Get(gomock.Any(), "annotation_9").Return(existing, nil)

	var saved models.SyncableRecord
	mockRepo.EXPECT().
		Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r models.SyncableRecord) error {
			saved = r
			return nil
		})

	require.NoError(t, svc.Delete(context.Background(), "annotation_9"))

	assert.True(t, saved.IsTombstone())
	assert.Equal(t, int64(3), saved.Version)
	assert.Equal(t, models.StatusPending, saved.SyncStatus)
	assert.Equal(t, models.TombstoneHash, saved.ContentHash)
	assert.Equal(t, "device-1", saved.OriginDevice)
	require.Len(t, published, 1)
}

func TestRecordService_Delete_AlreadyDeletedIsNoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, _ := newTestRecordSvc(t, ctrl)

	mockRepo.EXPECT().
		Get(gomock.Any(), "annotation_9").
		Return(models.SyncableRecord{ID: "annotation_9", Version: 3}, nil)

	require.NoError(t, svc.Delete(context.Background(), "annotation_9"))
}

func TestRecordService_Delete_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, _ := newTestRecordSvc(t, ctrl)

	mockRepo.EXPECT().
		Get(gomock.Any(), "document_404").
		Return(models.SyncableRecord{}, store.ErrRecordNotFound)

	err := svc.Delete(context.Background(), "document_404")
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}

// ── Read ────────────────────────────────────────────────────────────────────

func TestRecordService_Read_HidesTombstones(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, _ := newTestRecordSvc(t, ctrl)

	mockRepo.EXPECT().
		Get(gomock.Any(), "document_42").
		Return(models.SyncableRecord{ID: "document_42", ContentHash: models.TombstoneHash}, nil)

	_, err := svc.Read(context.Background(), "document_42")
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}

func TestRecordService_Read_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, _ := newTestRecordSvc(t, ctrl)

	want := models.SyncableRecord{ID: "search_q1", Payload: models.Payload{"query": "go"}}
	mockRepo.EXPECT().Get(gomock.Any(), "search_q1").Return(want, nil)

	got, err := svc.Read(context.Background(), "search_q1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

// ── ReadAll ─────────────────────────────────────────────────────────────────

func TestRecordService_ReadAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, _ := newTestRecordSvc(t, ctrl)

	want := []models.SyncableRecord{
		{ID: "conversation_1", Payload: models.Payload{"messages": "hi"}},
	}
	mockRepo.EXPECT().GetByType(gomock.Any(), models.Conversation).Return(want, nil)

	got, err := svc.ReadAll(context.Background(), models.Conversation)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRecordService_ReadAll_InvalidType(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, _, _ := newTestRecordSvc(t, ctrl)

	_, err := svc.ReadAll(context.Background(), "bookmark")
	assert.ErrorIs(t, err, ErrInvalidRecordType)
}
