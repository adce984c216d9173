// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-dash-sync/internal/adapter"
	"github.com/MKhiriev/go-dash-sync/internal/events"
	"github.com/MKhiriev/go-dash-sync/internal/logger"
	"github.com/MKhiriev/go-dash-sync/internal/service"
)

type connectivityWatcher struct {
	adapter  adapter.ServerAdapter
	engine   service.SyncEngine
	bus      *events.Bus
	interval time.Duration

	mu     sync.Mutex
	online bool
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *logger.Logger
}

// NewConnectivityWatcher builds the worker that probes the server health
// endpoint on a fixed interval and reports reachability transitions to the
// sync engine and the bus. The client starts out assumed offline; the first
// successful probe flips it online.
func NewConnectivityWatcher(serverAdapter adapter.ServerAdapter, engine service.SyncEngine, bus *events.Bus, interval time.Duration, log *logger.Logger) Worker {
	return &connectivityWatcher{
		adapter:  serverAdapter,
		engine:   engine,
		bus:      bus,
		interval: interval,
		logger:   log,
	}
}

// Start implements [Worker]. The first probe fires immediately so startup
// does not wait a full interval to discover the server.
func (w *connectivityWatcher) Start(ctx context.Context) {
	w.Stop()

	w.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()

		w.probe(jobCtx)

		t := time.NewTicker(w.interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				w.probe(jobCtx)
			}
		}
	}()
}

// Stop implements [Worker].
func (w *connectivityWatcher) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

func (w *connectivityWatcher) probe(ctx context.Context) {
	err := w.adapter.Ping(ctx)
	online := err == nil

	w.mu.Lock()
	transition := online != w.online
	w.online = online
	w.mu.Unlock()

	if !transition {
		return
	}

	w.engine.SetOnline(online)

	if online {
		w.logger.Info().
			Str("func", "connectivityWatcher.probe").
			Msg("server reachable, going online")
		w.bus.Publish(events.Event{Type: events.Online})
		return
	}

	w.logger.Info().
		Str("func", "connectivityWatcher.probe").
		Err(err).
		Msg("server unreachable, going offline")
	w.bus.Publish(events.Event{Type: events.Offline})
}
