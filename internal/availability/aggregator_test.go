package availability

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"reflect"
	"testing"
	"time"

	"shelfcheck/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// stubSource returns canned results per title and records call order.
type stubSource struct {
	label   string
	results map[string][]types.LibrarySearchResult
	calls   []string
}

func (s *stubSource) Label() string { return s.label }

func (s *stubSource) Search(_ context.Context, book types.Book) []types.LibrarySearchResult {
	s.calls = append(s.calls, book.Title)
	return s.results[book.Title]
}

func available(title string, format types.Format) types.LibrarySearchResult {
	return types.LibrarySearchResult{Title: title, Author: "A. Writer", Available: true, Format: format}
}

func checkedOut(title string) types.LibrarySearchResult {
	return types.LibrarySearchResult{Title: title, Author: "A. Writer", Available: false, Format: types.FormatBook}
}

func TestCheckTagsAndFilters(t *testing.T) {
	city := &stubSource{label: "City Library", results: map[string][]types.LibrarySearchResult{
		"Dune": {available("Dune", types.FormatBook), checkedOut("Dune")},
	}}
	county := &stubSource{label: "County Library", results: map[string][]types.LibrarySearchResult{
		"Dune": {available("Dune", types.FormatBook)},
	}}

	agg := New([]CatalogSource{city, county}, testLogger, WithBookDelay(0))
	got := agg.Check(context.Background(), []types.Book{{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441172719"}})

	if len(got) != 2 {
		t.Fatalf("expected one record per source, got %d", len(got))
	}
	for _, r := range got {
		if !r.Available {
			t.Errorf("output must contain only available records: %+v", r)
		}
		if r.Title != "Dune" || r.Author != "Frank Herbert" || r.ISBN != "9780441172719" {
			t.Errorf("record not tagged with the book's identity: %+v", r)
		}
	}
	// Cross-source duplicates with different library labels are distinct.
	if got[0].Library == got[1].Library {
		t.Errorf("expected records from both sources, got %q twice", got[0].Library)
	}
	if got[0].Library != "City Library" || got[1].Library != "County Library" {
		t.Errorf("records must keep source registration order, got %q then %q", got[0].Library, got[1].Library)
	}
}

func TestCheckDeduplicatesPerSource(t *testing.T) {
	// Two branches of the same format at one source collapse into one
	// record; the eBook copy stays separate.
	city := &stubSource{label: "City Library", results: map[string][]types.LibrarySearchResult{
		"Dune": {
			available("Dune", types.FormatBook),
			available("Dune", types.FormatBook),
			available("Dune", types.FormatEBook),
		},
	}}

	agg := New([]CatalogSource{city}, testLogger, WithBookDelay(0))
	got := agg.Check(context.Background(), []types.Book{{Title: "Dune", Author: "Frank Herbert"}})

	if len(got) != 2 {
		t.Fatalf("expected 2 unique records, got %d", len(got))
	}
	if got[0].Format != types.FormatBook || got[1].Format != types.FormatEBook {
		t.Errorf("unexpected formats in order: %s, %s", got[0].Format, got[1].Format)
	}
}

func TestCheckBooksInOrder(t *testing.T) {
	src := &stubSource{label: "City Library"}
	agg := New([]CatalogSource{src}, testLogger, WithBookDelay(0))

	books := []types.Book{{Title: "First"}, {Title: "Second"}, {Title: "Third"}}
	agg.Check(context.Background(), books)

	want := []string{"First", "Second", "Third"}
	if !reflect.DeepEqual(src.calls, want) {
		t.Errorf("books must be processed in input order, got %v", src.calls)
	}
}

func TestEmptySourceDoesNotAffectSiblings(t *testing.T) {
	// A source with no search form contributes zero results for every
	// book without failing the run.
	dead := &stubSource{label: "Unreachable Library"}
	city := &stubSource{label: "City Library", results: map[string][]types.LibrarySearchResult{
		"Dune":     {available("Dune", types.FormatBook)},
		"Hyperion": {available("Hyperion", types.FormatBook)},
	}}

	agg := New([]CatalogSource{dead, city}, testLogger, WithBookDelay(0))
	got := agg.Check(context.Background(), []types.Book{{Title: "Dune"}, {Title: "Hyperion"}})

	if len(got) != 2 {
		t.Fatalf("expected results from the live source, got %d", len(got))
	}
	for _, r := range got {
		if r.Library != "City Library" {
			t.Errorf("unexpected library %q", r.Library)
		}
	}
	if len(dead.calls) != 2 {
		t.Errorf("dead source must still be asked for every book, got %d calls", len(dead.calls))
	}
}

func TestDeduplicateIsIdempotent(t *testing.T) {
	records := []types.BookAvailability{
		{Title: "Dune", Library: "City Library", Format: types.FormatBook, Available: true},
		{Title: "Dune", Library: "City Library", Format: types.FormatBook, Available: true},
		{Title: "Dune", Library: "County Library", Format: types.FormatBook, Available: true},
		{Title: "Dune", Library: "City Library", Format: types.FormatEBook, Available: true},
	}

	once := Deduplicate(records)
	twice := Deduplicate(once)

	if len(once) != 3 {
		t.Fatalf("expected 3 unique records, got %d", len(once))
	}
	if !reflect.DeepEqual(once, twice) {
		t.Error("deduplication must be a fixed point of its own output")
	}
}

func TestCheckCancelledBetweenBooks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	src := &stubSource{label: "City Library", results: map[string][]types.LibrarySearchResult{
		"First": {available("First", types.FormatBook)},
	}}
	agg := New([]CatalogSource{src}, testLogger, WithBookDelay(time.Hour))

	done := make(chan []types.BookAvailability, 1)
	go func() {
		done <- agg.Check(ctx, []types.Book{{Title: "First"}, {Title: "Second"}})
	}()
	cancel()

	got := <-done
	if len(got) != 1 {
		t.Fatalf("expected the completed book's result, got %d records", len(got))
	}
	if len(src.calls) != 1 {
		t.Errorf("no further books may start after cancellation, got calls %v", src.calls)
	}
}

func TestCheckNoBooks(t *testing.T) {
	agg := New(nil, testLogger, WithBookDelay(0))
	if got := agg.Check(context.Background(), nil); len(got) != 0 {
		t.Fatalf("expected empty output, got %d records", len(got))
	}
}

var errUpstream = errors.New("wishlist page did not load")

type stubWishlist struct {
	books []types.Book
	err   error
}

func (s *stubWishlist) Books(context.Context, string) ([]types.Book, error) {
	return s.books, s.err
}

func TestServiceWishlistFailureIsFatal(t *testing.T) {
	svc := NewService(&stubWishlist{err: errUpstream}, New(nil, testLogger), nil, testLogger)

	_, err := svc.Check(context.Background(), "https://www.amazon.com/hz/wishlist/ls/ABC123")
	if err == nil {
		t.Fatal("expected wishlist failure to surface")
	}
	var werr *types.WishlistError
	if !errors.As(err, &werr) {
		t.Fatalf("expected WishlistError, got %T: %v", err, err)
	}
	if !errors.Is(err, errUpstream) {
		t.Error("expected the underlying cause to be wrapped")
	}
}

func TestServicePassesBooksThrough(t *testing.T) {
	city := &stubSource{label: "City Library", results: map[string][]types.LibrarySearchResult{
		"Dune": {available("Dune", types.FormatBook)},
	}}
	svc := NewService(
		&stubWishlist{books: []types.Book{{Title: "Dune", Author: "Frank Herbert"}}},
		New([]CatalogSource{city}, testLogger, WithBookDelay(0)),
		nil,
		testLogger,
	)

	got, err := svc.Check(context.Background(), "https://www.amazon.com/hz/wishlist/ls/ABC123")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(got) != 1 || got[0].Library != "City Library" {
		t.Fatalf("unexpected output: %+v", got)
	}
}
