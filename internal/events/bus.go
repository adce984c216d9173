// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package events implements the in-process notification bus that connects the
// sync engine, the record service and the background workers.
//
// Delivery is synchronous: Publish invokes every matching handler on the
// calling goroutine before returning. A panicking handler is recovered and
// logged so that one misbehaving subscriber cannot break publishers or other
// subscribers.
package events

import (
	"sync"
	"time"

	"github.com/MKhiriev/go-dash-sync/internal/logger"
)

// Type names a bus event.
type Type string

const (
	// DataChanged fires after a local write is persisted.
	DataChanged Type = "dataChanged"

	// DataDeleted fires after a local deletion produces a tombstone.
	DataDeleted Type = "dataDeleted"

	// SyncStarted fires when a sync cycle begins.
	SyncStarted Type = "syncStarted"

	// SyncCompleted fires after a sync cycle finishes cleanly. The payload
	// is a [SyncSummary].
	SyncCompleted Type = "syncCompleted"

	// SyncError fires when a sync cycle aborts. The payload is the error.
	SyncError Type = "syncError"

	// ConflictDetected fires when reconciliation records a new conflict.
	// The payload is the models.SyncConflict.
	ConflictDetected Type = "conflictDetected"

	// ConflictResolved fires after a conflict is settled. The payload is
	// the resolved models.SyncableRecord.
	ConflictResolved Type = "conflictResolved"

	// Online fires when the connectivity watcher observes the server
	// becoming reachable.
	Online Type = "online"

	// Offline fires when the connectivity watcher loses the server.
	Offline Type = "offline"
)

// Event is a single bus notification. Payload content depends on Type; see
// the Type constants for what each carries.
type Event struct {
	Type    Type
	Payload any
	At      time.Time
}

// SyncSummary is the payload of a SyncCompleted event.
type SyncSummary struct {
	Pushed    int
	Pulled    int
	Conflicts int
}

// Handler receives published events. Handlers run synchronously on the
// publisher's goroutine and must not block.
type Handler func(Event)

// Bus is a typed publish/subscribe hub. The zero value is not usable; use
// [NewBus].
type Bus struct {
	mu     sync.RWMutex
	subs   map[Type]map[int]Handler
	nextID int

	logger *logger.Logger
}

func NewBus(logger *logger.Logger) *Bus {
	return &Bus{
		subs:   make(map[Type]map[int]Handler),
		logger: logger,
	}
}

// Subscribe registers handler for events of type t and returns a function
// that removes the subscription. Calling the returned function more than once
// is safe.
func (b *Bus) Subscribe(t Type, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[t] == nil {
		b.subs[t] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.subs[t][id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[t], id)
	}
}

// Publish delivers event to every handler subscribed to event.Type. Delivery
// order across handlers is not guaranteed. A zero event.At is filled with the
// current time.
func (b *Bus) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[event.Type]))
	for _, h := range b.subs[event.Type] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.deliver(event, h)
	}
}

func (b *Bus) deliver(event Event, handler Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Str("func", "Bus.deliver").
				Str("event", string(event.Type)).
				Any("panic", r).
				Msg("event handler panicked")
		}
	}()

	handler(event)
}
