// Package wishlist extracts the ordered list of desired titles from an
// Amazon wish-list page. The list is rendered with infinite scroll, so
// the page is scrolled until its height stops growing before its items
// are read out of the settled DOM.
package wishlist

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"shelfcheck/internal/browser"
	"shelfcheck/internal/types"
)

// poolKey is the session-pool key for the wish-list browser. The wish-list
// site gets its own session so its state never mixes with the catalogs'.
const poolKey = "wishlist"

const (
	viewportW = 1280
	viewportH = 800
)

var (
	asinRe   = regexp.MustCompile(`/dp/([A-Z0-9]{10})`)
	bylineRe = regexp.MustCompile(`(?i)^by\s+`)
)

// scrollPage is the slice of the page API the scroll loop touches,
// narrowed so tests can drive the loop without a browser.
type scrollPage interface {
	Eval(js string, jsArgs ...interface{}) (*proto.RuntimeRemoteObject, error)
}

// Options controls navigation and scroll pacing.
type Options struct {
	// NavigationTimeout caps the initial page load.
	NavigationTimeout time.Duration

	// ScrollDelay is the wait after each scroll for new items to load.
	ScrollDelay time.Duration

	// StableProbeDelay is the wait between height probes once the page
	// has stopped growing.
	StableProbeDelay time.Duration

	// StableProbes is how many consecutive unchanged height probes mean
	// the list is fully loaded.
	StableProbes int

	// UserAgent is the browser identity presented to the site.
	UserAgent string
}

// Extractor reads books from a public wish-list page.
type Extractor struct {
	pool   *browser.SessionPool
	opts   Options
	logger *slog.Logger
}

// NewExtractor creates a wish-list extractor on the shared session pool.
func NewExtractor(pool *browser.SessionPool, opts Options, logger *slog.Logger) *Extractor {
	return &Extractor{
		pool:   pool,
		opts:   opts,
		logger: logger.With("component", "wishlist_extractor"),
	}
}

// Books loads the wish-list, scrolls it to the end, and returns every
// titled item in page order. Failure here is fatal to the run; the most
// common cause is a list that is not public.
func (e *Extractor) Books(ctx context.Context, wishlistURL string) ([]types.Book, error) {
	b, err := e.pool.Acquire(poolKey)
	if err != nil {
		return nil, fmt.Errorf("acquire session: %w", err)
	}

	// The wish-list site is actively bot-hostile, so the page gets
	// stealth patches and a realistic identity.
	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("stealth page: %w", err)
	}
	defer page.Close()
	page = page.Context(ctx)

	if e.opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: e.opts.UserAgent}); err != nil {
			e.logger.Warn("failed to set user agent", "error", err)
		}
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportW,
		Height:            viewportH,
		DeviceScaleFactor: 1,
	}); err != nil {
		e.logger.Warn("failed to set viewport", "error", err)
	}

	e.logger.Info("navigating to wishlist", "url", wishlistURL)
	if err := page.Timeout(e.opts.NavigationTimeout).Navigate(wishlistURL); err != nil {
		return nil, fmt.Errorf("navigate to wishlist (is the list public?): %w", err)
	}
	if err := page.Timeout(e.opts.NavigationTimeout).WaitStable(300 * time.Millisecond); err != nil {
		e.logger.Debug("wishlist stability timeout, continuing", "error", err)
	}

	if err := e.scrollToEnd(ctx, page); err != nil {
		return nil, fmt.Errorf("scroll wishlist: %w", err)
	}

	pageHTML, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("snapshot wishlist: %w", err)
	}

	books, err := ParseWishlist(pageHTML)
	if err != nil {
		return nil, err
	}
	e.logger.Info("wishlist extraction complete", "books", len(books))
	return books, nil
}

// scrollToEnd scrolls to the bottom repeatedly until the page height is
// unchanged for StableProbes consecutive probes.
func (e *Extractor) scrollToEnd(ctx context.Context, page scrollPage) error {
	previousHeight := 0
	noChange := 0

	for noChange < e.opts.StableProbes {
		result, err := page.Eval(`document.body.scrollHeight`)
		if err != nil {
			return fmt.Errorf("read page height: %w", err)
		}
		currentHeight := result.Value.Int()

		if currentHeight == previousHeight {
			noChange++
			e.logger.Debug("height unchanged, waiting", "probe", noChange, "max", e.opts.StableProbes)
			if err := wait(ctx, e.opts.StableProbeDelay); err != nil {
				return err
			}
		} else {
			noChange = 0
			previousHeight = currentHeight
		}

		if _, err := page.Eval(`window.scrollTo(0, document.body.scrollHeight)`); err != nil {
			return fmt.Errorf("scroll to bottom: %w", err)
		}
		if err := wait(ctx, e.opts.ScrollDelay); err != nil {
			return err
		}
	}
	return nil
}

// ParseWishlist reads books out of a fully loaded wish-list page. Items
// without a title are skipped; items without a byline get the
// UnknownAuthor placeholder.
func ParseWishlist(pageHTML string) ([]types.Book, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("parse wishlist html: %w", err)
	}

	var books []types.Book
	doc.Find("li[data-itemid]").Each(func(_ int, item *goquery.Selection) {
		titleEl := item.Find("h2 a").First()
		if titleEl.Length() == 0 {
			titleEl = item.Find(`a[id^="itemName"]`).First()
		}
		title := strings.TrimSpace(titleEl.Text())
		if title == "" {
			return
		}

		author := cleanByline(item.Find(`span[id^="item-byline"]`).Text())
		if author == "" {
			author = types.UnknownAuthor
		}

		var asin string
		if href, ok := titleEl.Attr("href"); ok {
			if m := asinRe.FindStringSubmatch(href); m != nil {
				asin = m[1]
			}
		}

		books = append(books, types.Book{
			Title:  title,
			Author: author,
			ASIN:   asin,
		})
	})

	return books, nil
}

// cleanByline turns "by Frank Herbert (Author)" into "Frank Herbert".
func cleanByline(byline string) string {
	author := bylineRe.ReplaceAllString(strings.TrimSpace(byline), "")
	author, _, _ = strings.Cut(author, "(")
	return strings.TrimSpace(author)
}

// wait sleeps unless the run is cancelled first.
func wait(ctx context.Context, d time.Duration) error {
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
