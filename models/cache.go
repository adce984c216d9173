package models

import "time"

// CachedDocument is an entry in the bounded document cache. Its lifecycle is
// fully independent from SyncableRecord: cached documents are never synced,
// never conflict, and are evicted purely by space pressure.
type CachedDocument struct {
	// ID is the cache key.
	ID string `json:"id"`

	// Payload is the opaque cached body.
	Payload []byte `json:"payload"`

	// SizeBytes is the payload size counted against the cache budget.
	SizeBytes int64 `json:"size_bytes"`

	// LastAccessed is updated on every cache hit and orders eviction.
	LastAccessed time.Time `json:"last_accessed"`

	// CachedAt is the time the entry was first inserted.
	CachedAt time.Time `json:"cached_at"`
}
