package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
// Every storage failure leaves the database unchanged: a failed operation is
// always "no change occurred".
var (
	// ErrRecordNotFound is returned when a query or update targets a
	// record (identified by id) that does not exist in the database.
	ErrRecordNotFound = errors.New("record was not found")

	// ErrConflictNotFound is returned when a query targets a sync conflict
	// that does not exist, typically because it was already resolved or
	// superseded by a newer pull.
	ErrConflictNotFound = errors.New("sync conflict was not found")

	// ErrMetadataNotFound is returned when a metadata key has never been
	// written. Metadata entries are created lazily, so first reads of
	// bookkeeping keys are expected to hit this.
	ErrMetadataNotFound = errors.New("metadata key was not found")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails (e.g. invalid argument count or unsupported type).
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrScanningRow is returned when scanning column values from a result
	// row into a destination struct fails.
	ErrScanningRow = errors.New("failed to scan row")
)
