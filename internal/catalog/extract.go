package catalog

import (
	"regexp"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"shelfcheck/internal/types"
)

// titleRecordXPath matches every hyperlink to a Polaris title record.
// These anchors are the only stable handle on a result row.
const titleRecordXPath = `//a[contains(@href, "/search/title.aspx")]`

// relevancePrefixLen bounds false positives from unrelated results: a
// candidate's visible text must contain at least this many leading
// characters of the searched title, case-insensitively. Catalog titles
// often append subtitles or edition markers, so an exact match is too
// strict.
const relevancePrefixLen = 20

// maxAncestorDepth bounds the walk from a title link up to its result
// row container.
const maxAncestorDepth = 15

// containerSlack is how much longer than the bare title a container's
// text must be before it plausibly holds availability info too.
const containerSlack = 50

var (
	positiveTerms = []string{"available", "on shelf", "check shelf"}
	negativeTerms = []string{"unavailable", "not available", "checked out", "on order"}

	authorRe = regexp.MustCompile(`(?i)by ([^,\n]+)`)
)

// ExtractResults parses a rendered search-results page and returns one
// availability fact per candidate title record. Candidates that fail the
// relevance filter or have no usable container are skipped; everything
// else is returned with its derived Available flag, including
// not-available rows, which the aggregator filters out later.
func ExtractResults(pageHTML string, book types.Book) ([]types.LibrarySearchResult, error) {
	doc, err := htmlquery.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return nil, &types.ExtractError{Err: err}
	}

	prefix := book.TitlePrefix(relevancePrefixLen)

	var results []types.LibrarySearchResult
	for _, link := range htmlquery.Find(doc, titleRecordXPath) {
		title := strings.TrimSpace(htmlquery.InnerText(link))
		if title == "" || !strings.Contains(strings.ToLower(title), prefix) {
			continue
		}

		container := resultContainer(link, len(title))
		if container == nil {
			continue
		}
		text := htmlquery.InnerText(container)
		lower := strings.ToLower(text)

		results = append(results, types.LibrarySearchResult{
			Title:     title,
			Author:    extractAuthor(text, book.Author),
			Available: DecideAvailability(lower),
			Format:    ClassifyFormat(lower),
			// Branch needs the record's detail page; out of scope here.
		})
	}
	return results, nil
}

// resultContainer walks up from a title link until it reaches an ancestor
// whose text is long enough to carry availability info alongside the
// title. The walk is a heuristic proxy for "this is the result row, not
// just the title span" and gives up after maxAncestorDepth levels,
// settling for whatever ancestor it stopped on.
func resultContainer(link *html.Node, titleLen int) *html.Node {
	container := link.Parent
	for depth := 0; container != nil && depth < maxAncestorDepth; depth++ {
		if len(htmlquery.InnerText(container)) > titleLen+containerSlack {
			break
		}
		container = container.Parent
	}
	return container
}

// DecideAvailability derives the on-shelf flag from lower-cased result
// row text. A disqualifying term always wins: "checked out - available
// for hold" is not available.
func DecideAvailability(lowerText string) bool {
	for _, term := range negativeTerms {
		if strings.Contains(lowerText, term) {
			return false
		}
	}
	for _, term := range positiveTerms {
		if strings.Contains(lowerText, term) {
			return true
		}
	}
	return false
}

// ClassifyFormat maps result row text to an item format. First match
// wins, checked in fixed order, so a row mentioning both "ebook" and
// "dvd" classifies as eBook.
func ClassifyFormat(lowerText string) types.Format {
	switch {
	case strings.Contains(lowerText, "ebook"), strings.Contains(lowerText, "e-book"):
		return types.FormatEBook
	case strings.Contains(lowerText, "audiobook"), strings.Contains(lowerText, "audio book"):
		return types.FormatAudiobook
	case strings.Contains(lowerText, "dvd"):
		return types.FormatDVD
	case strings.Contains(lowerText, "cd"):
		return types.FormatCD
	default:
		return types.FormatBook
	}
}

// extractAuthor pulls the author out of a "by ..." byline in the result
// row, falling back to the author the wish-list already knows.
func extractAuthor(text, fallback string) string {
	if m := authorRe.FindStringSubmatch(text); m != nil {
		if author := strings.TrimSpace(m[1]); author != "" {
			return author
		}
	}
	return fallback
}
