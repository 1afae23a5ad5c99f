package book_test

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sablewallet/sable/internal/book"
	"github.com/sablewallet/sable/internal/domain"
)

const issuer = "rIssuerGateway"

var usdXRP = domain.TradingPair{
	Base:  domain.Asset{Currency: "XRP"},
	Quote: domain.Asset{Currency: "USD", Issuer: issuer},
}

func newAnalyzer() *book.Analyzer {
	return book.NewAnalyzer(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func rawOffer(t *testing.T, getsDrops int64, paysUSD string) domain.RawBookOffer {
	t.Helper()
	pays, err := domain.IssuedAmount("USD", issuer, paysUSD)
	if err != nil {
		t.Fatal(err)
	}
	return domain.RawBookOffer{
		Account:   "rMaker",
		TakerGets: domain.NativeAmount(getsDrops),
		TakerPays: pays,
	}
}

// twoLevelDepth is a buy-side book with 50 XRP at 1.00 and 50 XRP at 1.02.
func twoLevelDepth(t *testing.T) domain.Depth {
	t.Helper()
	a := newAnalyzer()
	return a.BuildDepth([]domain.RawBookOffer{
		rawOffer(t, 50_000_000, "50"),
		rawOffer(t, 50_000_000, "51"),
	}, usdXRP, domain.BookSideBuy)
}

func TestBuildDepth_BuySide(t *testing.T) {
	depth := twoLevelDepth(t)

	if len(depth.Levels) != 2 {
		t.Fatalf("got %d levels, want 2", len(depth.Levels))
	}
	if depth.Levels[0].Price.String() != "1" {
		t.Errorf("best price: got %s, want 1", depth.Levels[0].Price)
	}
	if depth.Levels[1].Price.String() != "1.02" {
		t.Errorf("second price: got %s, want 1.02", depth.Levels[1].Price)
	}
	if depth.Levels[1].CumulativeQuantity.String() != "100" {
		t.Errorf("cumulative quantity: got %s, want 100", depth.Levels[1].CumulativeQuantity)
	}
	if depth.Levels[1].CumulativeCost.String() != "101" {
		t.Errorf("cumulative cost: got %s, want 101", depth.Levels[1].CumulativeCost)
	}
}

func TestBuildDepth_SellSideInverts(t *testing.T) {
	// On the sell side the maker buys the base: TakerPays is XRP.
	a := newAnalyzer()
	pays := domain.NativeAmount(50_000_000)
	gets, err := domain.IssuedAmount("USD", issuer, "49")
	if err != nil {
		t.Fatal(err)
	}
	depth := a.BuildDepth([]domain.RawBookOffer{{
		Account:   "rMaker",
		TakerGets: gets,
		TakerPays: pays,
	}}, usdXRP, domain.BookSideSell)

	if len(depth.Levels) != 1 {
		t.Fatalf("got %d levels, want 1", len(depth.Levels))
	}
	if depth.Levels[0].Price.String() != "0.98" {
		t.Errorf("price: got %s, want 0.98", depth.Levels[0].Price)
	}
	if depth.Levels[0].Quantity.String() != "50" {
		t.Errorf("quantity: got %s, want 50", depth.Levels[0].Quantity)
	}
}

func TestBuildDepth_SkipsDegenerateOffers(t *testing.T) {
	a := newAnalyzer()
	depth := a.BuildDepth([]domain.RawBookOffer{
		{Account: "rMaker", TakerGets: domain.NativeAmount(0), TakerPays: mustUSD(t, "10")},
		rawOffer(t, 50_000_000, "50"),
	}, usdXRP, domain.BookSideBuy)

	if len(depth.Levels) != 1 {
		t.Errorf("zero-quantity offer must be skipped, got %d levels", len(depth.Levels))
	}
}

func mustUSD(t *testing.T, v string) domain.Amount {
	t.Helper()
	a, err := domain.IssuedAmount("USD", issuer, v)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestEstimate_WalksLevels(t *testing.T) {
	depth := twoLevelDepth(t)
	tolerance := decimal.NewFromFloat(0.05)

	est := book.Estimate(depth, decimal.New(80, 0), tolerance)
	if !est.FullyFillable {
		t.Fatal("80 against 100 available should fill fully")
	}
	// 50 @ 1.00 + 30 @ 1.02 = 80.6; average 1.0075.
	if est.TotalCost.String() != "80.6" {
		t.Errorf("total cost: got %s, want 80.6", est.TotalCost)
	}
	if est.AveragePrice.String() != "1.0075" {
		t.Errorf("average price: got %s, want 1.0075", est.AveragePrice)
	}
	if est.WorstPriceTouched.String() != "1.02" {
		t.Errorf("worst price: got %s, want 1.02", est.WorstPriceTouched)
	}
	// Impact (1.02-1.00)/1.00 = 2%, inside the 5% tolerance.
	if est.PriceImpact.String() != "2" {
		t.Errorf("price impact: got %s%%, want 2", est.PriceImpact)
	}
	if est.Warning != "" {
		t.Errorf("no warning expected, got %q", est.Warning)
	}
}

func TestEstimate_PriceImpactWarning(t *testing.T) {
	depth := twoLevelDepth(t)
	tolerance := decimal.NewFromFloat(0.01)

	est := book.Estimate(depth, decimal.New(80, 0), tolerance)
	if est.Warning == "" {
		t.Fatal("2% impact against 1% tolerance should warn")
	}
	if !strings.Contains(est.Warning, "price impact") {
		t.Errorf("got %q, want a price impact warning", est.Warning)
	}
}

func TestEstimate_SlippageWarning(t *testing.T) {
	// Books where the impact stays inside tolerance but the average drifts
	// past half of it trigger the milder advisory.
	a := newAnalyzer()
	depth := a.BuildDepth([]domain.RawBookOffer{
		rawOffer(t, 10_000_000, "10"),
		rawOffer(t, 90_000_000, "91.7"),
	}, usdXRP, domain.BookSideBuy)
	tolerance := decimal.NewFromFloat(0.02)

	est := book.Estimate(depth, decimal.New(100, 0), tolerance)
	if est.PriceImpact.GreaterThan(decimal.New(2, 0)) {
		t.Fatalf("fixture broken: impact %s%% exceeds tolerance", est.PriceImpact)
	}
	if !strings.Contains(est.Warning, "slippage") {
		t.Errorf("got %q, want a slippage warning", est.Warning)
	}
}

func TestEstimate_InsufficientLiquidity(t *testing.T) {
	depth := twoLevelDepth(t)

	est := book.Estimate(depth, decimal.New(125, 0), decimal.NewFromFloat(0.05))
	if est.FullyFillable {
		t.Fatal("125 against 100 available cannot fill fully")
	}
	if est.FilledQuantity.String() != "100" {
		t.Errorf("filled: got %s, want 100", est.FilledQuantity)
	}
	if est.UnfillableQty.String() != "25" {
		t.Errorf("unfillable: got %s, want 25", est.UnfillableQty)
	}
	// The liquidity warning outranks impact and slippage.
	if !strings.Contains(est.Warning, "Insufficient liquidity") {
		t.Errorf("got %q, want the insufficient liquidity warning", est.Warning)
	}
	if !strings.Contains(est.Warning, "80.0%") {
		t.Errorf("got %q, want the filled share 80.0%%", est.Warning)
	}
}

func TestEstimate_EmptyBook(t *testing.T) {
	est := book.Estimate(domain.Depth{}, decimal.New(10, 0), decimal.NewFromFloat(0.02))
	if est.Warning != book.WarningNoLiquidity {
		t.Errorf("got %q, want %q", est.Warning, book.WarningNoLiquidity)
	}
	if est.UnfillableQty.String() != "10" {
		t.Errorf("unfillable: got %s, want the full order", est.UnfillableQty)
	}
	if est.FullyFillable {
		t.Error("an empty book fills nothing")
	}
}

func TestEstimate_CostMonotonicInSize(t *testing.T) {
	depth := twoLevelDepth(t)
	tolerance := decimal.NewFromFloat(0.05)

	prev := decimal.Zero
	for _, size := range []int64{10, 30, 50, 70, 90} {
		est := book.Estimate(depth, decimal.New(size, 0), tolerance)
		if est.TotalCost.LessThan(prev) {
			t.Fatalf("cost decreased at size %d: %s < %s", size, est.TotalCost, prev)
		}
		prev = est.TotalCost
	}
}

func TestProtectedPrice(t *testing.T) {
	best := decimal.New(1, 0)
	tol := decimal.NewFromFloat(0.02)

	buy := book.ProtectedPrice(best, tol, domain.BookSideBuy)
	if buy.String() != "1.02" {
		t.Errorf("buy: got %s, want 1.02", buy)
	}
	sell := book.ProtectedPrice(best, tol, domain.BookSideSell)
	if sell.String() != "0.98" {
		t.Errorf("sell: got %s, want 0.98", sell)
	}
}
