// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/MKhiriev/go-dash-sync/internal/config"
	"github.com/MKhiriev/go-dash-sync/internal/logger"
	"github.com/MKhiriev/go-dash-sync/models"
	"github.com/dgraph-io/badger/v3"
)

type manager struct {
	db       *badger.DB
	maxBytes int64

	mu        sync.Mutex
	totalSize int64

	logger *logger.Logger
}

// NewManager opens (or creates) the Badger store in cfg.Dir and rebuilds the
// running byte total from the entries already on disk.
func NewManager(cfg config.Cache, log *logger.Logger) (Manager, error) {
	opts := badger.DefaultOptions(cfg.Dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache store: %w", err)
	}

	m := &manager{db: db, maxBytes: cfg.MaxBytes, logger: log}
	if err = m.rebuildSize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("rebuild cache size: %w", err)
	}

	log.Debug().
		Str("func", "cache.NewManager").
		Str("dir", cfg.Dir).
		Int64("total_bytes", m.totalSize).
		Int64("max_bytes", m.maxBytes).
		Msg("document cache opened")

	return m, nil
}

func (m *manager) Put(ctx context.Context, id string, payload []byte) error {
	log := logger.FromContext(ctx)

	size := int64(len(payload))
	if size > m.maxBytes {
		return fmt.Errorf("%w: %d bytes, budget %d", ErrDocumentTooLarge, size, m.maxBytes)
	}

	now := time.Now().UTC()
	doc := models.CachedDocument{
		ID:           id,
		Payload:      payload,
		SizeBytes:    size,
		LastAccessed: now,
		CachedAt:     now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	previous, err := m.load(id)
	switch {
	case err == nil:
		doc.CachedAt = previous.CachedAt
		m.totalSize -= previous.SizeBytes
	case !errors.Is(err, ErrDocumentNotCached):
		return err
	}

	if err = m.save(doc); err != nil {
		log.Err(err).
			Str("func", "manager.Put").
			Str("id", id).
			Msg("failed to store cached document")
		return err
	}
	m.totalSize += size

	return m.evictLocked(ctx, id)
}

func (m *manager) Get(ctx context.Context, id string) (models.CachedDocument, error) {
	log := logger.FromContext(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.load(id)
	if err != nil {
		return models.CachedDocument{}, err
	}

	doc.LastAccessed = time.Now().UTC()
	if err = m.save(doc); err != nil {
		log.Err(err).
			Str("func", "manager.Get").
			Str("id", id).
			Msg("failed to refresh access time")
		return models.CachedDocument{}, err
	}

	return doc, nil
}

func (m *manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.load(id)
	if errors.Is(err, ErrDocumentNotCached) {
		return nil
	}
	if err != nil {
		return err
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(id))
	})
	if err != nil {
		return fmt.Errorf("delete cached document %q: %w", id, err)
	}
	m.totalSize -= doc.SizeBytes

	return nil
}

func (m *manager) TotalSize() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalSize
}

func (m *manager) Close() error {
	return m.db.Close()
}

// evictLocked drops least recently accessed documents until the byte total is
// within budget. The entry named keep (the one just inserted) is evicted last.
// Callers must hold m.mu.
func (m *manager) evictLocked(ctx context.Context, keep string) error {
	if m.totalSize <= m.maxBytes {
		return nil
	}
	log := logger.FromContext(ctx)

	docs, err := m.list()
	if err != nil {
		return err
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].ID == keep {
			return false
		}
		if docs[j].ID == keep {
			return true
		}
		return docs[i].LastAccessed.Before(docs[j].LastAccessed)
	})

	for _, doc := range docs {
		if m.totalSize <= m.maxBytes {
			break
		}
		err = m.db.Update(func(txn *badger.Txn) error {
			return txn.Delete([]byte(doc.ID))
		})
		if err != nil {
			return fmt.Errorf("evict cached document %q: %w", doc.ID, err)
		}
		m.totalSize -= doc.SizeBytes

		log.Debug().
			Str("func", "manager.evictLocked").
			Str("id", doc.ID).
			Int64("freed_bytes", doc.SizeBytes).
			Msg("evicted cached document")
	}

	return nil
}

func (m *manager) load(id string) (models.CachedDocument, error) {
	var doc models.CachedDocument
	err := m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.CachedDocument{}, ErrDocumentNotCached
	}
	if err != nil {
		return models.CachedDocument{}, fmt.Errorf("load cached document %q: %w", id, err)
	}
	return doc, nil
}

func (m *manager) save(doc models.CachedDocument) error {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode cached document %q: %w", doc.ID, err)
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(doc.ID), encoded)
	})
}

func (m *manager) list() ([]models.CachedDocument, error) {
	var docs []models.CachedDocument
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var doc models.CachedDocument
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &doc)
			})
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list cached documents: %w", err)
	}
	return docs, nil
}

func (m *manager) rebuildSize() error {
	docs, err := m.list()
	if err != nil {
		return err
	}
	m.totalSize = 0
	for _, doc := range docs {
		m.totalSize += doc.SizeBytes
	}
	return nil
}
