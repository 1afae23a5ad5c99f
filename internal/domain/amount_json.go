package domain

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// amountJSON is the persisted/API shape of an Amount. Drops travel as a
// string to survive arbitrary precision.
type amountJSON struct {
	Native   bool   `json:"native"`
	Drops    string `json:"drops,omitempty"`
	Currency string `json:"currency,omitempty"`
	Issuer   string `json:"issuer,omitempty"`
	Value    string `json:"value,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	out := amountJSON{Native: a.Native}
	if a.Native {
		if a.Drops != nil {
			out.Drops = a.Drops.String()
		} else {
			out.Drops = "0"
		}
	} else {
		out.Currency = a.Currency
		out.Issuer = a.Issuer
		out.Value = a.Value.String()
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var in amountJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Native {
		drops := in.Drops
		if drops == "" {
			drops = "0"
		}
		v, ok := new(big.Int).SetString(drops, 10)
		if !ok {
			return fmt.Errorf("amount: parse drops %q", drops)
		}
		*a = Amount{Native: true, Drops: v}
		return nil
	}
	value := in.Value
	if value == "" {
		value = "0"
	}
	v, err := decimal.NewFromString(value)
	if err != nil {
		return fmt.Errorf("amount: parse value %q: %w", value, err)
	}
	*a = Amount{Currency: in.Currency, Issuer: in.Issuer, Value: v}
	return nil
}
