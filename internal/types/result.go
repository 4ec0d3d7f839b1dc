package types

// Format classifies the physical or digital form of a catalog item.
type Format string

const (
	FormatBook      Format = "Book"
	FormatEBook     Format = "eBook"
	FormatAudiobook Format = "Audiobook"
	FormatDVD       Format = "DVD"
	FormatCD        Format = "CD"
)

// LibrarySearchResult is a per-source, per-title availability fact
// produced by one catalog lookup. It carries no source identity; the
// aggregator attaches that when it tags results into BookAvailability.
type LibrarySearchResult struct {
	// Title is the catalog's title for the matched record, which often
	// includes subtitles or edition markers the wish-list title omits.
	Title string

	// Author is the author parsed from the result row, or the Book's
	// known author when the row does not name one.
	Author string

	// Available is true only when the row's text carries a positive
	// availability term and no disqualifying term.
	Available bool

	// Format is the classified item format.
	Format Format

	// Branch is the holding branch. Resolving it requires following the
	// record's detail page, so it is left empty by the catalog adapters.
	Branch string
}

// BookAvailability is the output record: a LibrarySearchResult enriched
// with the originating Book's identity and the source's display label.
type BookAvailability struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	ISBN      string `json:"isbn,omitempty"`
	Library   string `json:"library"`
	Available bool   `json:"available"`
	Format    Format `json:"format"`
	Branch    string `json:"branch,omitempty"`
}

// AvailabilityKey identifies duplicates in the final result set. No two
// records in the aggregator's output share the same key.
type AvailabilityKey struct {
	Title   string
	Library string
	Format  Format
}

// Key returns the deduplication key for this record.
func (a BookAvailability) Key() AvailabilityKey {
	return AvailabilityKey{Title: a.Title, Library: a.Library, Format: a.Format}
}
