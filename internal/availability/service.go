package availability

import (
	"context"
	"log/slog"

	"shelfcheck/internal/observability"
	"shelfcheck/internal/types"
)

// WishlistSource supplies the ordered books for one run.
type WishlistSource interface {
	Books(ctx context.Context, wishlistURL string) ([]types.Book, error)
}

// Service is the end-to-end pipeline: wish-list extraction followed by
// the availability check.
type Service struct {
	wishlist WishlistSource
	agg      *Aggregator
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewService wires the extractor and aggregator into one pipeline.
func NewService(wishlist WishlistSource, agg *Aggregator, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{
		wishlist: wishlist,
		agg:      agg,
		metrics:  metrics,
		logger:   logger.With("component", "availability_service"),
	}
}

// Check runs the full pipeline for one wish-list URL. Only wish-list
// extraction can fail the run; per-book and per-source lookup failures
// degrade to missing results.
func (s *Service) Check(ctx context.Context, wishlistURL string) ([]types.BookAvailability, error) {
	if s.metrics != nil {
		s.metrics.RunsTotal.Add(1)
	}

	books, err := s.wishlist.Books(ctx, wishlistURL)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RunsFailed.Add(1)
		}
		return nil, &types.WishlistError{URL: wishlistURL, Err: err}
	}
	if s.metrics != nil {
		s.metrics.WishlistBooks.Add(int64(len(books)))
	}
	s.logger.Info("wishlist extracted", "books", len(books))

	return s.agg.Check(ctx, books), nil
}
