package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookSide identifies which way a prospective order crosses the book.
type BookSide string

const (
	BookSideBuy  BookSide = "buy"  // taker buys the base asset
	BookSideSell BookSide = "sell" // taker sells the base asset
)

// Asset names one leg of a trading pair. Issuer is empty for XRP.
type Asset struct {
	Currency string
	Issuer   string
}

// IsNative reports whether the asset is XRP.
func (a Asset) IsNative() bool {
	return a.Currency == "XRP" && a.Issuer == ""
}

// TradingPair is a base/quote pair; prices are always quote per base.
type TradingPair struct {
	Base  Asset
	Quote Asset
}

// BookLevel is one resting order normalized into the pair's price convention,
// with running cumulative sums threaded through in snapshot order. The
// snapshot order encodes the ledger's matching priority, so levels are never
// re-sorted.
type BookLevel struct {
	Price              decimal.Decimal // quote per base
	Quantity           decimal.Decimal // base units available at this level
	CumulativeQuantity decimal.Decimal
	CumulativeCost     decimal.Decimal // quote units to consume through here
}

// Depth is a built cumulative depth curve for one side of a book.
type Depth struct {
	Pair      TradingPair
	Side      BookSide
	Levels    []BookLevel
	FetchedAt time.Time
}

// BestPrice returns the first level's price, or zero when the curve is empty.
func (d Depth) BestPrice() decimal.Decimal {
	if len(d.Levels) == 0 {
		return decimal.Zero
	}
	return d.Levels[0].Price
}

// ExecutionEstimate is the predicted outcome of a hypothetical market order
// walked against a depth curve. Estimates are ephemeral and recomputed per
// query.
type ExecutionEstimate struct {
	AveragePrice      decimal.Decimal
	TotalCost         decimal.Decimal
	PriceImpact       decimal.Decimal // percent
	Slippage          decimal.Decimal // percent
	FilledQuantity    decimal.Decimal
	UnfillableQty     decimal.Decimal
	WorstPriceTouched decimal.Decimal
	FullyFillable     bool
	Warning           string
}
