// Package sizing computes the maximum order size a wallet can afford under
// the ledger's reserve requirements.
package sizing

import (
	"github.com/shopspring/decimal"

	"github.com/sablewallet/sable/internal/domain"
)

// AmountPrecision is the number of decimal places order amounts are floored
// to. Flooring (never rounding) guarantees the computed amount multiplied
// back by the price cannot exceed the available balance. The value is
// product policy.
const AmountPrecision = 8

// offerReserveDivisor: a resting offer reserves one tenth of the owner
// reserve increment of a trust line. Fixed ledger policy, not configurable.
var offerReserveDivisor = decimal.New(10, 0)

// DefaultFeeDrops is the flat transaction fee budgeted when sizing, in drops.
const DefaultFeeDrops int64 = 12

var sizingDropsPerXRP = decimal.New(1_000_000, 0)

// Wallet is the balance and reserve-relevant state of the account being
// sized.
type Wallet struct {
	NativeBalanceDrops decimal.Decimal
	TrustlineCount     int
	RestingOfferCount  int
}

// Params are the ledger reserve requirements plus the fee budget, all in
// drops.
type Params struct {
	BaseReserveDrops      decimal.Decimal
	IncrementReserveDrops decimal.Decimal
	FeeDrops              decimal.Decimal
}

// ParamsFromReserves adapts gateway reserve values with the default fee.
func ParamsFromReserves(r domain.ReserveParams) Params {
	return Params{
		BaseReserveDrops:      decimal.New(r.BaseReserveDrops, 0),
		IncrementReserveDrops: decimal.New(r.IncrementReserveDrops, 0),
		FeeDrops:              decimal.New(DefaultFeeDrops, 0),
	}
}

// OwnerReserveDrops is the wallet's owner reserve: one increment per trust
// line plus a tenth of an increment per resting offer.
func OwnerReserveDrops(w Wallet, p Params) decimal.Decimal {
	trustlines := p.IncrementReserveDrops.Mul(decimal.New(int64(w.TrustlineCount), 0))
	offers := p.IncrementReserveDrops.Div(offerReserveDivisor).Mul(decimal.New(int64(w.RestingOfferCount), 0))
	return trustlines.Add(offers)
}

// AvailableNative returns the wallet's spendable XRP in major units after
// the base reserve, owner reserve, and fee budget, never negative.
func AvailableNative(w Wallet, p Params) decimal.Decimal {
	available := w.NativeBalanceDrops.
		Sub(p.BaseReserveDrops).
		Sub(OwnerReserveDrops(w, p)).
		Sub(p.FeeDrops)
	if available.IsNegative() {
		return decimal.Zero
	}
	return available.Div(sizingDropsPerXRP)
}

// MaxBuy returns the largest base amount purchasable at price given the
// available quote balance. When the quote side is XRP the reserve-adjusted
// native balance replaces quoteBalance. The result is floored so that
// amount * price never exceeds the balance.
func MaxBuy(w Wallet, p Params, quoteBalance, price decimal.Decimal, quoteIsNative bool) (decimal.Decimal, error) {
	if !price.IsPositive() {
		return decimal.Zero, domain.ErrPriceRequired
	}
	if quoteIsNative {
		quoteBalance = AvailableNative(w, p)
	}
	if !quoteBalance.IsPositive() {
		return decimal.Zero, domain.ErrInsufficientBalance
	}
	return quoteBalance.Div(price).RoundFloor(AmountPrecision), nil
}

// MaxSell returns the quote total receivable for selling up to baseBalance
// at price, flooring the computed total. When the base side is XRP the
// reserve-adjusted native balance replaces baseBalance.
func MaxSell(w Wallet, p Params, baseBalance, price decimal.Decimal, baseIsNative bool) (decimal.Decimal, error) {
	if !price.IsPositive() {
		return decimal.Zero, domain.ErrPriceRequired
	}
	if baseIsNative {
		baseBalance = AvailableNative(w, p)
	}
	if !baseBalance.IsPositive() {
		return decimal.Zero, domain.ErrInsufficientBalance
	}
	return baseBalance.Mul(price).RoundFloor(AmountPrecision), nil
}
