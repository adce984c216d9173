package models

// Keys of the flat metadata table used for sync-engine bookkeeping.
// Entries are created lazily and never deleted during normal operation.
const (
	// MetaUserID stores the identifier of the authenticated user.
	MetaUserID = "userId"

	// MetaLastSyncTime stores the RFC 3339 timestamp of the last
	// completed sync cycle. It is advanced only by the sync engine.
	MetaLastSyncTime = "lastSyncTime"

	// MetaDeviceID stores the stable per-installation device identity.
	// Generated once on first start and persisted.
	MetaDeviceID = "deviceId"
)
