package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrMissingWishlistURL = errors.New("wishlist URL is required")
	ErrNoSearchBox        = errors.New("search input not present on entry page")
	ErrNoResultsPage      = errors.New("submit did not reach a results page")
	ErrSessionClosed      = errors.New("browser session pool is closed")
)

// LookupError wraps a failure of a single (book, source) lookup. Lookups
// are fault-isolated: adapters log these and report empty results instead
// of propagating them.
type LookupError struct {
	Source string
	Title  string
	Step   string
	Err    error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup %q at %s failed during %s: %v", e.Title, e.Source, e.Step, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// ExtractError wraps errors that occur while parsing rendered HTML.
type ExtractError struct {
	Source string
	Err    error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract error (%s): %v", e.Source, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// WishlistError wraps a failure of the wish-list extraction stage. Unlike
// lookup failures this is fatal to the whole run.
type WishlistError struct {
	URL string
	Err error
}

func (e *WishlistError) Error() string {
	return fmt.Sprintf("wishlist extraction failed for %s: %v", e.URL, e.Err)
}

func (e *WishlistError) Unwrap() error { return e.Err }

// StorageError wraps errors from result export backends.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
