// Package stats derives execution statistics from an offer's fill history.
package stats

import (
	"github.com/shopspring/decimal"

	"github.com/sablewallet/sable/internal/domain"
)

// FullyExecutedThreshold is the fill percentage at or above which an offer
// counts as fully executed. The tolerance absorbs decimal rounding in
// reconstructed fills, not a business rule; the value is product policy.
var FullyExecutedThreshold = decimal.NewFromFloat(99.9)

var hundred = decimal.New(100, 0)

// EnrichedOffer is an offer record together with its derived execution
// statistics, in display (major-unit) terms.
type EnrichedOffer struct {
	Record *domain.OfferRecord

	TotalFilledReceived decimal.Decimal
	TotalFilledPaid     decimal.Decimal

	// FillPercentage is capped at 100: rounding in reconstructed fills can
	// otherwise nudge the cumulative total past the original quantity.
	FillPercentage decimal.Decimal

	// AverageExecutionPrice is the received-quantity-weighted mean of the
	// fill prices, at the same ledger scale as FillEvent.Price. Fills without
	// a price are excluded from both numerator and denominator.
	AverageExecutionPrice decimal.Decimal
	HasAveragePrice       bool

	FullyExecuted bool
	Cancelled     bool
}

// Enrich computes execution statistics for one offer record. live is the
// offer's row in the account's current resting-offer snapshot, nil when the
// offer is no longer on the book.
func Enrich(record *domain.OfferRecord, live *domain.LiveOffer) EnrichedOffer {
	e := EnrichedOffer{Record: record}

	var priceWeighted, priceWeight decimal.Decimal
	for _, f := range record.Fills {
		recv := f.Received.Major()
		e.TotalFilledReceived = e.TotalFilledReceived.Add(recv)
		e.TotalFilledPaid = e.TotalFilledPaid.Add(f.Paid.Major())
		if f.HasPrice {
			priceWeighted = priceWeighted.Add(f.Price.Mul(recv))
			priceWeight = priceWeight.Add(recv)
		}
	}

	original := record.OriginalReceived.Major()
	if original.IsPositive() {
		pct := e.TotalFilledReceived.Div(original).Mul(hundred)
		if pct.GreaterThan(hundred) {
			pct = hundred
		}
		e.FillPercentage = pct
	}

	if priceWeight.IsPositive() {
		e.AverageExecutionPrice = priceWeighted.Div(priceWeight)
		e.HasAveragePrice = true
	}

	e.FullyExecuted = e.FillPercentage.GreaterThanOrEqual(FullyExecutedThreshold)
	e.Cancelled = live == nil && len(record.Fills) == 0

	return e
}
