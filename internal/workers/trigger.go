// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-dash-sync/internal/events"
	"github.com/MKhiriev/go-dash-sync/internal/logger"
	"github.com/MKhiriev/go-dash-sync/internal/service"
)

type syncTrigger struct {
	engine   service.SyncEngine
	bus      *events.Bus
	debounce time.Duration

	mu          sync.Mutex
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	kick        chan struct{}
	unsubscribe []func()

	logger *logger.Logger
}

// NewSyncTrigger builds the worker that listens for local data changes and
// connectivity recovery on the bus and converts them into sync cycles. Bursts
// of changes are debounced: the cycle starts only after the bus has been
// quiet for the debounce window.
func NewSyncTrigger(engine service.SyncEngine, bus *events.Bus, debounce time.Duration, log *logger.Logger) Worker {
	return &syncTrigger{
		engine:   engine,
		bus:      bus,
		debounce: debounce,
		logger:   log,
	}
}

// Start implements [Worker].
func (s *syncTrigger) Start(ctx context.Context) {
	s.Stop()

	s.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.kick = make(chan struct{}, 1)
	s.unsubscribe = []func(){
		s.bus.Subscribe(events.DataChanged, func(events.Event) { s.nudge() }),
		s.bus.Subscribe(events.DataDeleted, func(events.Event) { s.nudge() }),
		s.bus.Subscribe(events.Online, func(events.Event) { s.nudge() }),
	}
	kick := s.kick
	s.wg.Add(1)
	s.mu.Unlock()

	go s.loop(jobCtx, kick)
}

// Stop implements [Worker].
func (s *syncTrigger) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	for _, u := range unsubscribe {
		u()
	}
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *syncTrigger) nudge() {
	s.mu.Lock()
	kick := s.kick
	s.mu.Unlock()
	if kick == nil {
		return
	}

	select {
	case kick <- struct{}{}:
	default: // a trigger is already queued
	}
}

// loop collapses kick bursts: each kick arms (or re-arms) the debounce timer,
// and only a quiet window lets the cycle run.
func (s *syncTrigger) loop(ctx context.Context, kick <-chan struct{}) {
	defer s.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case <-kick:
			if timer == nil {
				timer = time.NewTimer(s.debounce)
				fire = timer.C
				continue
			}
			if !timer.Stop() {
				select {
				case <-fire:
				default:
				}
			}
			timer.Reset(s.debounce)

		case <-fire:
			timer = nil
			fire = nil
			s.logger.Debug().
				Str("func", "syncTrigger.loop").
				Msg("debounce window elapsed, triggering sync")
			s.engine.TrySync(ctx)
		}
	}
}
