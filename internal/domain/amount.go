package domain

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// dropsPerXRP converts between drops (the ledger's native integer minor unit)
// and XRP major units.
var dropsPerXRP = decimal.New(1_000_000, 0)

// Amount is a ledger value: either native XRP expressed as integer drops, or
// an issued currency identified by (currency, issuer) with a decimal value.
// The two representations never mix in arithmetic; every operation checks the
// tag first.
type Amount struct {
	Native bool

	// Drops is set when Native is true.
	Drops *big.Int

	// Currency, Issuer and Value are set when Native is false.
	Currency string
	Issuer   string
	Value    decimal.Decimal
}

// NativeAmount builds a native Amount from a drop count.
func NativeAmount(drops int64) Amount {
	return Amount{Native: true, Drops: big.NewInt(drops)}
}

// IssuedAmount builds an issued-currency Amount.
func IssuedAmount(currency, issuer, value string) (Amount, error) {
	v, err := decimal.NewFromString(value)
	if err != nil {
		return Amount{}, fmt.Errorf("amount: parse issued value %q: %w", value, err)
	}
	return Amount{Currency: currency, Issuer: issuer, Value: v}, nil
}

// ParseAmount decodes the two wire shapes the ledger uses for amounts: a bare
// string of drops for XRP, or an object with currency/issuer/value for issued
// currencies.
func ParseAmount(raw any) (Amount, error) {
	switch v := raw.(type) {
	case string:
		drops, ok := new(big.Int).SetString(v, 10)
		if !ok {
			return Amount{}, fmt.Errorf("amount: parse drops %q", v)
		}
		return Amount{Native: true, Drops: drops}, nil
	case map[string]any:
		currency, _ := v["currency"].(string)
		issuer, _ := v["issuer"].(string)
		value, _ := v["value"].(string)
		if currency == "" || value == "" {
			return Amount{}, fmt.Errorf("amount: issued amount missing currency or value")
		}
		return IssuedAmount(currency, issuer, value)
	case nil:
		return Amount{}, fmt.Errorf("amount: nil value")
	default:
		return Amount{}, fmt.Errorf("amount: unsupported shape %T", raw)
	}
}

// IsZero reports whether the amount is zero. A native amount with a nil Drops
// pointer counts as zero (a deleted offer carries no final amount).
func (a Amount) IsZero() bool {
	if a.Native {
		return a.Drops == nil || a.Drops.Sign() == 0
	}
	return a.Value.IsZero()
}

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool {
	if a.Native {
		return a.Drops != nil && a.Drops.Sign() > 0
	}
	return a.Value.IsPositive()
}

// SameAsset reports whether two amounts are denominated in the same asset:
// both native, or both issued with matching currency and issuer.
func (a Amount) SameAsset(b Amount) bool {
	if a.Native != b.Native {
		return false
	}
	if a.Native {
		return true
	}
	return a.Currency == b.Currency && a.Issuer == b.Issuer
}

// Consumed returns a - b as the amount consumed between two snapshots of the
// same offer side, and whether any consumption occurred. A non-positive
// difference, or a mismatched asset, means no consumption. b being zero (the
// deleted-offer case) yields the full remaining amount a.
func (a Amount) Consumed(b Amount) (Amount, bool) {
	if !b.IsZero() && !a.SameAsset(b) {
		return Amount{}, false
	}
	if a.Native {
		if a.Drops == nil {
			return Amount{}, false
		}
		diff := new(big.Int).Set(a.Drops)
		if b.Drops != nil {
			diff.Sub(diff, b.Drops)
		}
		if diff.Sign() <= 0 {
			return Amount{}, false
		}
		return Amount{Native: true, Drops: diff}, true
	}
	diff := a.Value.Sub(b.Value)
	if !diff.IsPositive() {
		return Amount{}, false
	}
	return Amount{Currency: a.Currency, Issuer: a.Issuer, Value: diff}, true
}

// Add returns a + b. The two amounts must be the same asset; mismatches
// return a unchanged so that a malformed fill cannot corrupt a running total.
func (a Amount) Add(b Amount) Amount {
	if !a.SameAsset(b) {
		return a
	}
	if a.Native {
		sum := new(big.Int)
		if a.Drops != nil {
			sum.Add(sum, a.Drops)
		}
		if b.Drops != nil {
			sum.Add(sum, b.Drops)
		}
		return Amount{Native: true, Drops: sum}
	}
	return Amount{Currency: a.Currency, Issuer: a.Issuer, Value: a.Value.Add(b.Value)}
}

// Major returns the amount in display units: XRP for native amounts (drops
// divided by one million), the decimal value as-is for issued currencies.
func (a Amount) Major() decimal.Decimal {
	if a.Native {
		if a.Drops == nil {
			return decimal.Zero
		}
		return decimal.NewFromBigInt(a.Drops, 0).Div(dropsPerXRP)
	}
	return a.Value
}

// LedgerValue returns the value at ledger scale: the drop count for native
// amounts, the decimal value as-is for issued currencies. Execution prices
// are quoted against this scale.
func (a Amount) LedgerValue() decimal.Decimal {
	if a.Native {
		if a.Drops == nil {
			return decimal.Zero
		}
		return decimal.NewFromBigInt(a.Drops, 0)
	}
	return a.Value
}

// AssetCode returns the display code for the asset: "XRP" for native amounts,
// the currency code otherwise.
func (a Amount) AssetCode() string {
	if a.Native {
		return "XRP"
	}
	return a.Currency
}

// String renders the amount for logs.
func (a Amount) String() string {
	if a.Native {
		if a.Drops == nil {
			return "0 drops"
		}
		return a.Drops.String() + " drops"
	}
	return fmt.Sprintf("%s %s.%s", a.Value.String(), a.Currency, a.Issuer)
}
