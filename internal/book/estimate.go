package book

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sablewallet/sable/internal/domain"
)

// WarningNoLiquidity is returned when the book has no usable levels at all.
const WarningNoLiquidity = "No liquidity available for this pair"

var estHundred = decimal.New(100, 0)

// Estimate walks the depth curve with a hypothetical market order of
// orderSize base units and a relative slippage tolerance (0.02 = 2%). It
// never fails: degenerate inputs produce a fully-unfillable estimate with a
// warning instead of an error.
func Estimate(depth domain.Depth, orderSize, tolerance decimal.Decimal) domain.ExecutionEstimate {
	best := depth.BestPrice()
	if len(depth.Levels) == 0 || !best.IsPositive() {
		return domain.ExecutionEstimate{
			UnfillableQty: orderSize,
			Warning:       WarningNoLiquidity,
		}
	}

	remaining := orderSize
	var totalCost decimal.Decimal
	worst := best

	for _, level := range depth.Levels {
		if !remaining.IsPositive() {
			break
		}
		consumed := decimal.Min(remaining, level.Quantity)
		totalCost = totalCost.Add(consumed.Mul(level.Price))
		remaining = remaining.Sub(consumed)
		worst = level.Price
	}

	est := domain.ExecutionEstimate{
		TotalCost:         totalCost,
		FilledQuantity:    orderSize.Sub(remaining),
		UnfillableQty:     remaining,
		WorstPriceTouched: worst,
		FullyFillable:     remaining.IsZero(),
	}
	if est.FilledQuantity.IsPositive() {
		est.AveragePrice = totalCost.Div(est.FilledQuantity)
	}

	est.PriceImpact = worst.Sub(best).Abs().Div(best).Mul(estHundred)
	if est.AveragePrice.IsPositive() {
		est.Slippage = est.AveragePrice.Sub(best).Abs().Div(best).Mul(estHundred)
	}

	est.Warning = warning(est, tolerance)
	return est
}

// warning picks the single most severe advisory for an estimate; the first
// match wins.
func warning(est domain.ExecutionEstimate, tolerance decimal.Decimal) string {
	tolPct := tolerance.Mul(estHundred)

	if !est.FullyFillable {
		pctFilled := decimal.Zero
		total := est.FilledQuantity.Add(est.UnfillableQty)
		if total.IsPositive() {
			pctFilled = est.FilledQuantity.Div(total).Mul(estHundred)
		}
		return fmt.Sprintf("Insufficient liquidity: only %s%% of the order can be filled", pctFilled.StringFixed(1))
	}
	if est.PriceImpact.GreaterThan(tolPct) {
		return fmt.Sprintf("High price impact: filling this order moves the price %s%%", est.PriceImpact.StringFixed(2))
	}
	if est.Slippage.GreaterThan(tolPct.Div(decimal.New(2, 0))) {
		return fmt.Sprintf("Moderate slippage: average price deviates %s%% from the best price", est.Slippage.StringFixed(2))
	}
	return ""
}

// ProtectedPrice is the limit price to attach to a protective order: a buyer
// accepts paying up to tolerance above the best price, a seller accepts
// receiving down to tolerance below it.
func ProtectedPrice(bestPrice, tolerance decimal.Decimal, bookSide domain.BookSide) decimal.Decimal {
	one := decimal.New(1, 0)
	if bookSide == domain.BookSideBuy {
		return bestPrice.Mul(one.Add(tolerance))
	}
	return bestPrice.Mul(one.Sub(tolerance))
}
