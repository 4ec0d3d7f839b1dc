package types

import "strings"

// UnknownAuthor is the placeholder used when the wish-list page does not
// name an author for an item.
const UnknownAuthor = "Unknown Author"

// Book is a single desired title extracted from the wish-list.
// It is created once per run and is read-only afterwards.
type Book struct {
	// Title is the wish-list title. Never empty.
	Title string `json:"title"`

	// Author is the wish-list author, or UnknownAuthor when extraction
	// could not determine one.
	Author string `json:"author"`

	// ISBN is the external catalog identifier, when known.
	ISBN string `json:"isbn,omitempty"`

	// ASIN is the Amazon item identifier parsed from the item link.
	ASIN string `json:"asin,omitempty"`
}

// TitlePrefix returns the lower-cased first n characters of the title,
// used as the relevance filter against catalog result links.
func (b Book) TitlePrefix(n int) string {
	t := []rune(b.Title)
	if len(t) > n {
		t = t[:n]
	}
	return strings.ToLower(string(t))
}
