// Package availability fans each wish-list book out to every registered
// catalog source, merges per-title results, and reduces them to a
// deduplicated set of confirmed-available records.
package availability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"shelfcheck/internal/observability"
	"shelfcheck/internal/types"
)

// CatalogSource is one queryable library catalog. Search never returns an
// error: a failed lookup and a lookup with no matches are both an empty
// slice, which is the fault-isolation boundary the aggregator builds on.
type CatalogSource interface {
	Label() string
	Search(ctx context.Context, book types.Book) []types.LibrarySearchResult
}

// Aggregator drives the per-book, per-source fan-out.
type Aggregator struct {
	sources  []CatalogSource
	delay    time.Duration
	limiters map[string]*rate.Limiter
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// Option configures the Aggregator.
type Option func(*Aggregator)

// WithBookDelay sets the pause inserted between books. The delay is a
// deliberate throttle so a long wish-list does not hammer the catalogs.
func WithBookDelay(d time.Duration) Option {
	return func(g *Aggregator) { g.delay = d }
}

// WithSourceRateLimit adds a per-source token bucket on top of the
// inter-book delay. Zero or negative disables it.
func WithSourceRateLimit(perMinute int) Option {
	return func(g *Aggregator) {
		if perMinute <= 0 {
			return
		}
		g.limiters = make(map[string]*rate.Limiter, len(g.sources))
		for _, src := range g.sources {
			g.limiters[src.Label()] = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1)
		}
	}
}

// WithMetrics wires run counters into the aggregator.
func WithMetrics(m *observability.Metrics) Option {
	return func(g *Aggregator) { g.metrics = m }
}

// New creates an Aggregator over the given sources. Source order is
// preserved in the output: per book, results are appended in registration
// order regardless of which lookup finished first.
func New(sources []CatalogSource, logger *slog.Logger, opts ...Option) *Aggregator {
	g := &Aggregator{
		sources: sources,
		delay:   500 * time.Millisecond,
		logger:  logger.With("component", "aggregator"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check processes the books strictly in input order. Each book is fanned
// out to all sources concurrently and fully joined before the next book
// starts. The output contains only available records, deduplicated by
// (title, library, format) with the first occurrence kept.
func (g *Aggregator) Check(ctx context.Context, books []types.Book) []types.BookAvailability {
	g.logger.Info("checking availability", "books", len(books), "sources", len(g.sources))

	var collected []types.BookAvailability
	for i, book := range books {
		collected = append(collected, g.checkBook(ctx, book)...)

		if g.metrics != nil {
			g.metrics.BooksProcessed.Add(1)
		}
		g.logger.Debug("book processed",
			"index", i+1,
			"total", len(books),
			"title", book.Title,
		)

		if i < len(books)-1 {
			if err := sleep(ctx, g.delay); err != nil {
				g.logger.Warn("run cancelled between books", "processed", i+1)
				break
			}
		}
	}

	available := filterAvailable(collected)
	unique := Deduplicate(available)

	if g.metrics != nil {
		g.metrics.ResultsKept.Add(int64(len(unique)))
	}
	g.logger.Info("availability check complete",
		"unique_available", len(unique),
		"total_copies", len(available),
		"searched", len(books),
	)
	return unique
}

// checkBook runs one book against every source concurrently and joins
// the results in source registration order.
func (g *Aggregator) checkBook(ctx context.Context, book types.Book) []types.BookAvailability {
	perSource := make([][]types.LibrarySearchResult, len(g.sources))

	var wg sync.WaitGroup
	for i, src := range g.sources {
		wg.Add(1)
		go func(i int, src CatalogSource) {
			defer wg.Done()
			if err := g.waitForSource(ctx, src); err != nil {
				return
			}
			if g.metrics != nil {
				g.metrics.LookupsTotal.Add(1)
			}
			perSource[i] = src.Search(ctx, book)
			if g.metrics != nil && len(perSource[i]) == 0 {
				g.metrics.LookupsEmpty.Add(1)
			}
		}(i, src)
	}
	wg.Wait()

	var tagged []types.BookAvailability
	for i, src := range g.sources {
		for _, r := range perSource[i] {
			tagged = append(tagged, types.BookAvailability{
				Title:     book.Title,
				Author:    book.Author,
				ISBN:      book.ISBN,
				Library:   src.Label(),
				Available: r.Available,
				Format:    r.Format,
				Branch:    r.Branch,
			})
		}
		if g.metrics != nil {
			g.metrics.ResultsExtracted.Add(int64(len(perSource[i])))
		}
	}
	return tagged
}

// waitForSource blocks on the source's token bucket when rate limiting
// is enabled.
func (g *Aggregator) waitForSource(ctx context.Context, src CatalogSource) error {
	if g.limiters == nil {
		return nil
	}
	limiter, ok := g.limiters[src.Label()]
	if !ok {
		return nil
	}
	return limiter.Wait(ctx)
}

// filterAvailable drops every record whose Available flag is false.
func filterAvailable(records []types.BookAvailability) []types.BookAvailability {
	kept := records[:0:0]
	for _, r := range records {
		if r.Available {
			kept = append(kept, r)
		}
	}
	return kept
}

// Deduplicate removes records sharing a (title, library, format) key,
// keeping the first occurrence in processing order. Running it on its own
// output is a no-op.
func Deduplicate(records []types.BookAvailability) []types.BookAvailability {
	seen := make(map[types.AvailabilityKey]struct{}, len(records))
	unique := records[:0:0]
	for _, r := range records {
		key := r.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, r)
	}
	return unique
}

// sleep waits for the inter-book delay unless the run is cancelled.
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
