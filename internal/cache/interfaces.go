// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package cache implements the bounded offline document cache.
//
// The cache is a Badger key-value store holding [models.CachedDocument]
// entries. It is sized in bytes, not entries: once the sum of cached payload
// sizes exceeds the configured budget, the least recently accessed documents
// are evicted until the cache fits again. The cache is fully independent from
// the sync engine; evicting a document never touches its synced record.
package cache

import (
	"context"

	"github.com/MKhiriev/go-dash-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/cache_mock.go -package=mock

// Manager is the bounded LRU document cache.
type Manager interface {
	// Put stores payload under id, replacing any previous entry, and evicts
	// least recently accessed documents if the byte budget is exceeded.
	// A payload larger than the whole budget is rejected with
	// [ErrDocumentTooLarge].
	Put(ctx context.Context, id string, payload []byte) error

	// Get returns the cached document for id and refreshes its access time.
	// Returns [ErrDocumentNotCached] if id is not present.
	Get(ctx context.Context, id string) (models.CachedDocument, error)

	// Delete removes the entry for id. Deleting an absent id is a no-op.
	Delete(ctx context.Context, id string) error

	// TotalSize returns the sum of cached payload sizes in bytes.
	TotalSize() int64

	// Close flushes and closes the underlying store.
	Close() error
}
