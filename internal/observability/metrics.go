package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks operational counters for availability runs.
type Metrics struct {
	// Run metrics
	RunsTotal  atomic.Int64
	RunsFailed atomic.Int64

	// Wishlist metrics
	WishlistBooks atomic.Int64

	// Lookup metrics
	BooksProcessed atomic.Int64
	LookupsTotal   atomic.Int64
	LookupsEmpty   atomic.Int64

	// Result metrics
	ResultsExtracted atomic.Int64
	ResultsKept      atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// ServeHTTP serves counters in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		value int64
	}{
		{"shelfcheck_runs_total", "Total availability runs started", m.RunsTotal.Load()},
		{"shelfcheck_runs_failed_total", "Runs that failed during wishlist extraction", m.RunsFailed.Load()},
		{"shelfcheck_wishlist_books_total", "Books extracted from wishlists", m.WishlistBooks.Load()},
		{"shelfcheck_books_processed_total", "Books fanned out to catalog sources", m.BooksProcessed.Load()},
		{"shelfcheck_lookups_total", "Per-source catalog lookups attempted", m.LookupsTotal.Load()},
		{"shelfcheck_lookups_empty_total", "Lookups that yielded no results", m.LookupsEmpty.Load()},
		{"shelfcheck_results_extracted_total", "Availability facts extracted from result pages", m.ResultsExtracted.Load()},
		{"shelfcheck_results_kept_total", "Unique available records returned to callers", m.ResultsKept.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// Serve starts a metrics HTTP server on the given port in the
// background.
func (m *Metrics) Serve(port int, path string) {
	mux := http.NewServeMux()
	mux.Handle(path, m)

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()
}
