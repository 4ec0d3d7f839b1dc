// Package storage exports finished availability runs. Nothing here feeds
// back into the pipeline; a run is checked, written, and forgotten.
package storage

import (
	"shelfcheck/internal/types"
)

// Storage is the interface for all export backends.
type Storage interface {
	// Store buffers or persists one run's records.
	Store(records []types.BookAvailability) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the backend identifier.
	Name() string
}
