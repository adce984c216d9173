package service

import "errors"

var (
	ErrInvalidRecordType         = errors.New("invalid record type")
	ErrEmptyEntityID             = errors.New("empty entity id")
	ErrInvalidResolutionStrategy = errors.New("invalid resolution strategy")

	// ErrConflictStale is returned by Resolve when the contested record
	// was rewritten locally after the conflict was detected. The stale
	// conflict is discarded; the next pull re-detects against the fresh
	// local state.
	ErrConflictStale = errors.New("conflict outdated by a newer local write")
)
