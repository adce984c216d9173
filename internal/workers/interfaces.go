// Package workers provides the background goroutines of the sync client: the
// connectivity watcher that probes the server, and the sync trigger that
// turns data-change events into debounced sync cycles.
//
// Workers follow a Start/Stop lifecycle. Start launches the worker's
// goroutine and returns; Stop cancels it and blocks until it has fully
// exited.
package workers

import "context"

// Worker is a background goroutine with an explicit lifecycle.
type Worker interface {
	// Start launches the worker. The worker exits when ctx is cancelled or
	// Stop is called.
	Start(ctx context.Context)

	// Stop cancels the worker and blocks until its goroutine has exited.
	// Safe to call when the worker is not running.
	Stop()
}
