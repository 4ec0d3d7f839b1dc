package catalog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"

	"shelfcheck/internal/browser"
	"shelfcheck/internal/types"
)

// searchBoxSelector is the Polaris quick-search input on the entry page.
const searchBoxSelector = "#textboxTerm"

// navigationEvent ends the post-submit wait; DOM content is enough, the
// content settle below covers late-rendering results.
const navigationEvent = proto.PageLifecycleEventNameDOMContentLoaded

// Options holds per-step timeouts and settle delays for one adapter.
type Options struct {
	// EntryTimeout caps navigation to the catalog entry page.
	EntryTimeout time.Duration

	// SearchBoxTimeout caps the wait for the search input to appear.
	SearchBoxTimeout time.Duration

	// NavigationTimeout caps the wait for the results page after submit.
	NavigationTimeout time.Duration

	// AutocompleteDelay is the settle time between typing and submitting,
	// giving Polaris's autocomplete overlay a chance to open where we can
	// see past it instead of having it swallow the submit.
	AutocompleteDelay time.Duration

	// ContentSettle is the wait for client-rendered result content after
	// the results page loads.
	ContentSettle time.Duration
}

// DefaultOptions mirror the timings the Polaris catalogs need in
// practice.
func DefaultOptions() Options {
	return Options{
		EntryTimeout:      20 * time.Second,
		SearchBoxTimeout:  5 * time.Second,
		NavigationTimeout: 20 * time.Second,
		AutocompleteDelay: 500 * time.Millisecond,
		ContentSettle:     2 * time.Second,
	}
}

// Adapter drives one catalog's search UI for one title at a time.
type Adapter struct {
	source Source
	pool   *browser.SessionPool
	opts   Options
	logger *slog.Logger
}

// NewAdapter creates an adapter for one catalog source, borrowing browser
// sessions from the shared pool.
func NewAdapter(source Source, pool *browser.SessionPool, opts Options, logger *slog.Logger) *Adapter {
	return &Adapter{
		source: source,
		pool:   pool,
		opts:   opts,
		logger: logger.With("component", "catalog_adapter", "source", source.Key),
	}
}

// Label returns the source's display name.
func (a *Adapter) Label() string { return a.source.Label }

// Search looks one book up in this catalog and returns zero or more
// availability facts. Every failure is absorbed here: an unreachable
// site, a missing search form, or a navigation timeout all degrade to an
// empty result, never an error. The aggregator relies on that isolation.
func (a *Adapter) Search(ctx context.Context, book types.Book) []types.LibrarySearchResult {
	results, err := a.search(ctx, book)
	if err != nil {
		a.logger.Warn("lookup failed", "title", book.Title, "error", err)
		return nil
	}
	a.logger.Debug("lookup complete", "title", book.Title, "results", len(results))
	return results
}

func (a *Adapter) search(ctx context.Context, book types.Book) ([]types.LibrarySearchResult, error) {
	page, err := a.pool.NewPage(a.source.Key)
	if err != nil {
		return nil, &types.LookupError{Source: a.source.Key, Title: book.Title, Step: "open page", Err: err}
	}
	defer page.Close()
	page = page.Context(ctx)

	if err := page.Timeout(a.opts.EntryTimeout).Navigate(a.source.BaseURL); err != nil {
		return nil, &types.LookupError{Source: a.source.Key, Title: book.Title, Step: "navigate", Err: err}
	}
	// Entry pages keep long-polling connections open, so a hard
	// network-idle wait can spin until the timeout. Stability of the DOM
	// is what extraction actually needs.
	if err := page.Timeout(a.opts.EntryTimeout).WaitStable(300 * time.Millisecond); err != nil {
		a.logger.Debug("entry page stability timeout, continuing", "error", err)
	}

	box, err := page.Timeout(a.opts.SearchBoxTimeout).Element(searchBoxSelector)
	if err != nil {
		// No search form means the source is currently unreachable for
		// structured search. Not an error worth surfacing.
		a.logger.Info("no search box on entry page, skipping source", "title", book.Title)
		return nil, nil
	}

	if err := box.Input(book.Title); err != nil {
		return nil, &types.LookupError{Source: a.source.Key, Title: book.Title, Step: "type query", Err: err}
	}
	if err := sleep(ctx, a.opts.AutocompleteDelay); err != nil {
		return nil, err
	}

	// Submit with the Enter key rather than form.submit(): the
	// autocomplete overlay swallows programmatic submission.
	wait := page.Timeout(a.opts.NavigationTimeout).WaitNavigation(navigationEvent)
	if err := page.Keyboard.Press(input.Enter); err != nil {
		return nil, &types.LookupError{Source: a.source.Key, Title: book.Title, Step: "submit", Err: err}
	}
	wait()

	// The wait returns on navigation or on timeout without telling us
	// which. A results address means we can proceed either way; anything
	// else is a genuine navigation failure.
	info, err := page.Info()
	if err != nil {
		return nil, &types.LookupError{Source: a.source.Key, Title: book.Title, Step: "inspect url", Err: err}
	}
	if !isResultsURL(info.URL) {
		return nil, &types.LookupError{Source: a.source.Key, Title: book.Title, Step: "navigation", Err: types.ErrNoResultsPage}
	}

	if err := sleep(ctx, a.opts.ContentSettle); err != nil {
		return nil, err
	}

	pageHTML, err := page.HTML()
	if err != nil {
		return nil, &types.LookupError{Source: a.source.Key, Title: book.Title, Step: "snapshot", Err: err}
	}

	results, err := ExtractResults(pageHTML, book)
	if err != nil {
		return nil, &types.LookupError{Source: a.source.Key, Title: book.Title, Step: "extract", Err: err}
	}
	return results, nil
}

// isResultsURL reports whether an address belongs to a Polaris search
// results page.
func isResultsURL(u string) bool {
	lower := strings.ToLower(u)
	return strings.Contains(lower, "searchresults.aspx") || strings.Contains(lower, "search")
}

// sleep waits the given settle delay unless the run is cancelled first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
