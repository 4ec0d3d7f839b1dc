// Package catalog drives Polaris-family library catalog search UIs and
// turns their rendered result pages into availability facts. Both target
// catalogs share the same vendor markup: a #textboxTerm search input on
// the entry page and title-record links under /search/title.aspx.
package catalog

// Source identifies one independently hosted catalog.
type Source struct {
	// Key is the stable identifier used for session pooling and config.
	Key string

	// Label is the display name attached to results from this source.
	Label string

	// BaseURL is the catalog entry page carrying the search form.
	BaseURL string
}
