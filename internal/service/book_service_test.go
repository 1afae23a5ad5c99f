package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sablewallet/sable/internal/book"
	"github.com/sablewallet/sable/internal/domain"
	"github.com/sablewallet/sable/internal/service"
)

var testPair = domain.TradingPair{
	Base:  domain.Asset{Currency: "XRP"},
	Quote: domain.Asset{Currency: "USD", Issuer: issuer},
}

// memCache is a single-entry domain.BookCache for tests.
type memCache struct {
	mu    sync.Mutex
	depth *domain.Depth
	sets  int
}

func (c *memCache) SetDepth(_ context.Context, _ domain.TradingPair, _ domain.BookSide, depth domain.Depth, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.depth = &depth
	c.sets++
	return nil
}

func (c *memCache) GetDepth(_ context.Context, _ domain.TradingPair, _ domain.BookSide) (domain.Depth, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.depth == nil {
		return domain.Depth{}, domain.ErrNotFound
	}
	return *c.depth, nil
}

func newBookService(gw *fakeGateway, cache domain.BookCache) *service.BookService {
	logger := discardLogger()
	return service.NewBookService(
		gw,
		cache,
		book.NewAnalyzer(logger),
		10*time.Second,
		100,
		decimal.NewFromFloat(0.02),
		logger,
	)
}

func bookOffers() []domain.RawBookOffer {
	pays, _ := domain.IssuedAmount("USD", issuer, "50")
	return []domain.RawBookOffer{{
		Account:   "rMaker",
		TakerGets: domain.NativeAmount(50_000_000),
		TakerPays: pays,
	}}
}

func TestBookService_DepthBuildsCurve(t *testing.T) {
	gw := &fakeGateway{book: bookOffers()}
	svc := newBookService(gw, nil)

	depth, err := svc.Depth(context.Background(), testPair, domain.BookSideBuy)
	if err != nil {
		t.Fatal(err)
	}
	if len(depth.Levels) != 1 {
		t.Fatalf("got %d levels, want 1", len(depth.Levels))
	}
	if depth.Levels[0].Price.String() != "1" {
		t.Errorf("price: got %s, want 1", depth.Levels[0].Price)
	}
}

func TestBookService_CacheHitSkipsFetch(t *testing.T) {
	gw := &fakeGateway{book: bookOffers()}
	cache := &memCache{}
	svc := newBookService(gw, cache)
	ctx := context.Background()

	if _, err := svc.Depth(ctx, testPair, domain.BookSideBuy); err != nil {
		t.Fatal(err)
	}
	if cache.sets != 1 {
		t.Errorf("first call should write the cache, got %d writes", cache.sets)
	}

	if _, err := svc.Depth(ctx, testPair, domain.BookSideBuy); err != nil {
		t.Fatal(err)
	}
	if gw.bookCalls != 1 {
		t.Errorf("cached call must not refetch, got %d fetches", gw.bookCalls)
	}
}

func TestBookService_EstimateDefaultTolerance(t *testing.T) {
	gw := &fakeGateway{book: bookOffers()}
	svc := newBookService(gw, nil)

	// No tolerance given falls back to the configured 2%; a single-level
	// walk has no impact, so no warning appears.
	est, err := svc.Estimate(context.Background(), testPair, domain.BookSideBuy, decimal.New(10, 0), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !est.FullyFillable {
		t.Error("10 against 50 available should fill")
	}
	if est.Warning != "" {
		t.Errorf("got warning %q", est.Warning)
	}
}

func TestBookService_EstimateExplicitZeroTolerance(t *testing.T) {
	// Two levels, 1.00 and 1.02: an 80-unit walk moves the price 2%.
	pays2, _ := domain.IssuedAmount("USD", issuer, "51")
	gw := &fakeGateway{book: append(bookOffers(), domain.RawBookOffer{
		Account:   "rMaker2",
		TakerGets: domain.NativeAmount(50_000_000),
		TakerPays: pays2,
	})}
	svc := newBookService(gw, nil)
	ctx := context.Background()

	// Under the configured 2% default the move is tolerated.
	est, err := svc.Estimate(ctx, testPair, domain.BookSideBuy, decimal.New(80, 0), nil)
	if err != nil {
		t.Fatal(err)
	}
	if est.Warning != "" {
		t.Errorf("default tolerance: got warning %q", est.Warning)
	}

	// An explicit zero must flag the move, not silently become the default.
	zero := decimal.Zero
	est, err = svc.Estimate(ctx, testPair, domain.BookSideBuy, decimal.New(80, 0), &zero)
	if err != nil {
		t.Fatal(err)
	}
	if est.Warning == "" {
		t.Error("zero tolerance must warn on any price movement")
	}
}

func TestBookService_ProtectedPrice(t *testing.T) {
	gw := &fakeGateway{book: bookOffers()}
	svc := newBookService(gw, nil)

	tol := decimal.NewFromFloat(0.05)
	price, err := svc.ProtectedPrice(context.Background(), testPair, domain.BookSideBuy, &tol)
	if err != nil {
		t.Fatal(err)
	}
	if price.String() != "1.05" {
		t.Errorf("got %s, want 1.05", price)
	}
}

func TestBookService_ProtectedPriceEmptyBook(t *testing.T) {
	gw := &fakeGateway{}
	svc := newBookService(gw, nil)

	if _, err := svc.ProtectedPrice(context.Background(), testPair, domain.BookSideBuy, nil); err == nil {
		t.Error("an empty book has no best price to protect")
	}
}
