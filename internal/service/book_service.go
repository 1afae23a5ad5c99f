package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/sablewallet/sable/internal/book"
	"github.com/sablewallet/sable/internal/domain"
)

// BookService fetches order-book snapshots, builds depth curves, and answers
// estimate queries. Concurrent requests for the same pair and side collapse
// into one upstream fetch.
type BookService struct {
	gateway  domain.LedgerGateway
	cache    domain.BookCache // nil disables caching
	analyzer *book.Analyzer
	logger   *slog.Logger

	group     singleflight.Group
	bookTTL   time.Duration
	bookLimit int
	tolerance decimal.Decimal
}

// NewBookService creates a BookService. cache may be nil.
func NewBookService(
	gateway domain.LedgerGateway,
	cache domain.BookCache,
	analyzer *book.Analyzer,
	bookTTL time.Duration,
	bookLimit int,
	defaultTolerance decimal.Decimal,
	logger *slog.Logger,
) *BookService {
	return &BookService{
		gateway:   gateway,
		cache:     cache,
		analyzer:  analyzer,
		logger:    logger.With(slog.String("service", "book")),
		bookTTL:   bookTTL,
		bookLimit: bookLimit,
		tolerance: defaultTolerance,
	}
}

// Depth returns the current depth curve for one side of a pair, served from
// cache when fresh.
func (s *BookService) Depth(ctx context.Context, pair domain.TradingPair, side domain.BookSide) (domain.Depth, error) {
	if s.cache != nil {
		if depth, err := s.cache.GetDepth(ctx, pair, side); err == nil {
			return depth, nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "book cache read failed",
				slog.String("error", err.Error()),
			)
		}
	}

	key := fmt.Sprintf("%s/%s:%s/%s:%s",
		pair.Base.Currency, pair.Base.Issuer, pair.Quote.Currency, pair.Quote.Issuer, side)
	v, err, _ := s.group.Do(key, func() (any, error) {
		offers, err := s.gateway.BookOffers(ctx, pair, side, s.bookLimit)
		if err != nil {
			return nil, fmt.Errorf("book_service: fetch book: %w", err)
		}
		depth := s.analyzer.BuildDepth(offers, pair, side)

		if s.cache != nil {
			if cacheErr := s.cache.SetDepth(ctx, pair, side, depth, s.bookTTL); cacheErr != nil {
				s.logger.WarnContext(ctx, "book cache write failed",
					slog.String("error", cacheErr.Error()),
				)
			}
		}
		return depth, nil
	})
	if err != nil {
		return domain.Depth{}, err
	}
	return v.(domain.Depth), nil
}

// Estimate predicts the outcome of a market order of size base units against
// the current book. A nil tolerance uses the configured default; an explicit
// zero flags any price movement at all.
func (s *BookService) Estimate(ctx context.Context, pair domain.TradingPair, side domain.BookSide, size decimal.Decimal, tolerance *decimal.Decimal) (domain.ExecutionEstimate, error) {
	depth, err := s.Depth(ctx, pair, side)
	if err != nil {
		return domain.ExecutionEstimate{}, err
	}
	return book.Estimate(depth, size, s.resolveTolerance(tolerance)), nil
}

// ProtectedPrice returns the limit price to attach to a protective order at
// the current best price. A nil tolerance uses the configured default.
func (s *BookService) ProtectedPrice(ctx context.Context, pair domain.TradingPair, side domain.BookSide, tolerance *decimal.Decimal) (decimal.Decimal, error) {
	depth, err := s.Depth(ctx, pair, side)
	if err != nil {
		return decimal.Zero, err
	}
	best := depth.BestPrice()
	if !best.IsPositive() {
		return decimal.Zero, fmt.Errorf("book_service: %s", book.WarningNoLiquidity)
	}
	return book.ProtectedPrice(best, s.resolveTolerance(tolerance), side), nil
}

func (s *BookService) resolveTolerance(tolerance *decimal.Decimal) decimal.Decimal {
	if tolerance == nil {
		return s.tolerance
	}
	return *tolerance
}
