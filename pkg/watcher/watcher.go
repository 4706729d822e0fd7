// Package watcher converts external events into fresh artifacts under
// Needs_Action. Each watcher is idempotent within a process through a
// persistent seen-cache; cross-process idempotence rides on the
// external source's own state (mail labels, blob moves).
package watcher

import "context"

// Watcher is the event-ingestion capability.
type Watcher interface {
	// Name identifies the watcher in logs and journal entries.
	Name() string

	// RunOnce polls the source and materializes artifacts, returning
	// the count created. One detection's failure must not abort the
	// rest.
	RunOnce(ctx context.Context) (int, error)
}
