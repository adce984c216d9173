package cache

import "errors"

var (
	// ErrDocumentNotCached is returned by Get when the id has no entry,
	// either because it was never cached or because it has been evicted.
	ErrDocumentNotCached = errors.New("document not cached")

	// ErrDocumentTooLarge is returned by Put when a single payload exceeds
	// the whole cache budget and could never fit.
	ErrDocumentTooLarge = errors.New("document exceeds cache budget")
)
