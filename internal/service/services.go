package service

import (
	"github.com/MKhiriev/go-dash-sync/internal/adapter"
	"github.com/MKhiriev/go-dash-sync/internal/config"
	"github.com/MKhiriev/go-dash-sync/internal/events"
	"github.com/MKhiriev/go-dash-sync/internal/logger"
	"github.com/MKhiriev/go-dash-sync/internal/store"
)

// Services bundles the business-logic layer for wiring into the app.
type Services struct {
	Records   RecordService
	Conflicts ConflictManager
	Engine    SyncEngine
	Stats     StatsService
}

func NewServices(
	storages *store.Storages,
	serverAdapter adapter.ServerAdapter,
	bus *events.Bus,
	cfg *config.StructuredConfig,
	deviceID string,
	log *logger.Logger,
) *Services {
	conflicts := NewConflictManager(storages.Records, storages.Conflicts, bus, log)
	engine := NewSyncEngine(storages.Records, storages.Metadata, conflicts, serverAdapter, bus, cfg.Sync, log)

	return &Services{
		Records:   NewRecordService(storages.Records, bus, cfg.App.Owner, deviceID, log),
		Conflicts: conflicts,
		Engine:    engine,
		Stats:     NewStatsService(storages.Records, storages.Conflicts, storages.Metadata, engine),
	}
}
