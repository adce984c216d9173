// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-dash-sync/internal/adapter"
	"github.com/MKhiriev/go-dash-sync/internal/cache"
	"github.com/MKhiriev/go-dash-sync/internal/config"
	"github.com/MKhiriev/go-dash-sync/internal/events"
	"github.com/MKhiriev/go-dash-sync/internal/logger"
	"github.com/MKhiriev/go-dash-sync/internal/service"
	"github.com/MKhiriev/go-dash-sync/internal/store"
	"github.com/MKhiriev/go-dash-sync/internal/utils"
	"github.com/MKhiriev/go-dash-sync/internal/workers"
	"github.com/MKhiriev/go-dash-sync/models"
)

// App is the assembled sync client. Everything callers interact with hangs
// off this one value: the record services, the conflict manager, the sync
// engine, the document cache and the event bus.
type App struct {
	Services *service.Services
	Cache    cache.Manager
	Bus      *events.Bus

	storages *store.Storages
	workers  *workers.Workers

	logger *logger.Logger
}

// NewApp wires the full client from configuration: SQLite storage with
// migrations applied, the badger document cache, the HTTP server adapter, the
// services and the background workers. The device identity is created on
// first start and reused afterwards.
func NewApp(ctx context.Context, cfg *config.StructuredConfig, log *logger.Logger) (*App, error) {
	storages, err := store.NewStorages(cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}

	cacheMgr, err := cache.NewManager(cfg.Storage.Cache, log)
	if err != nil {
		return nil, fmt.Errorf("create document cache: %w", err)
	}

	serverAdapter, err := adapter.NewHTTPServerAdapter(cfg.Adapter, log)
	if err != nil {
		return nil, fmt.Errorf("create server adapter: %w", err)
	}

	bus := events.NewBus(log)

	deviceID, err := ensureDeviceID(ctx, storages.Metadata)
	if err != nil {
		return nil, fmt.Errorf("establish device identity: %w", err)
	}
	if err = storages.Metadata.Set(ctx, models.MetaUserID, cfg.App.Owner); err != nil {
		return nil, fmt.Errorf("persist owner: %w", err)
	}

	services := service.NewServices(storages, serverAdapter, bus, cfg, deviceID, log)

	background := workers.New(
		workers.NewConnectivityWatcher(serverAdapter, services.Engine, bus, cfg.Workers.ProbeInterval, log),
		workers.NewSyncTrigger(services.Engine, bus, cfg.Workers.SyncDebounce, log),
	)

	log.Info().
		Str("func", "client.NewApp").
		Str("device_id", deviceID).
		Str("owner", cfg.App.Owner).
		Msg("sync client assembled")

	return &App{
		Services: services,
		Cache:    cacheMgr,
		Bus:      bus,
		storages: storages,
		workers:  background,
		logger:   log,
	}, nil
}

// Run implements [Client]. It starts the background workers and blocks until
// ctx is cancelled, then shuts everything down in reverse order.
func (a *App) Run(ctx context.Context) error {
	a.workers.Start(ctx)
	<-ctx.Done()

	a.workers.Stop()
	return a.close()
}

func (a *App) close() error {
	var errs []error
	if err := a.Cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close document cache: %w", err))
	}
	if err := a.storages.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close local storage: %w", err))
	}
	return errors.Join(errs...)
}

// ensureDeviceID returns the stable identity of this installation, creating
// it on first start. The id marks the origin device on every record written
// here.
func ensureDeviceID(ctx context.Context, metadata store.MetadataRepository) (string, error) {
	id, err := metadata.Get(ctx, models.MetaDeviceID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, store.ErrMetadataNotFound) {
		return "", err
	}

	id = utils.NewUUIDGenerator().Generate()
	if err = metadata.Set(ctx, models.MetaDeviceID, id); err != nil {
		return "", err
	}
	return id, nil
}
