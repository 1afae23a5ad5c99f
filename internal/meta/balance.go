package meta

import (
	"log/slog"
	"math/big"

	"github.com/sablewallet/sable/internal/domain"
)

// ExtractBalanceDelta computes the wallet's net balance movement from one
// transaction's metadata: the AccountRoot XRP change plus every trust-line
// change where the wallet is a party. This surfaces trades that never touch
// one of the wallet's own offers, such as crossing someone else's resting
// offer through a payment.
func (e *Extractor) ExtractBalanceDelta(tx domain.Transaction, wallet string) domain.BalanceDelta {
	var delta domain.BalanceDelta

	for _, node := range tx.Meta {
		switch node.EntryType {
		case domain.EntryTypeAccountRoot:
			if node.Action != domain.NodeModified {
				continue
			}
			if node.FinalFields == nil || node.FinalFields.Account != wallet {
				continue
			}
			if node.PreviousFields == nil || node.PreviousFields.Balance == nil || node.FinalFields.Balance == nil {
				continue
			}
			prev, final := node.PreviousFields.Balance, node.FinalFields.Balance
			if !prev.Native || !final.Native || prev.Drops == nil || final.Drops == nil {
				e.logger.Warn("account root balance not native, skipping",
					slog.String("tx_hash", tx.Hash),
				)
				continue
			}
			d := new(big.Int).Sub(final.Drops, prev.Drops)
			delta.Native = &domain.Amount{Native: true, Drops: d}

		case domain.EntryTypeRippleState:
			if node.Action != domain.NodeModified {
				continue
			}
			d, ok := e.trustlineDelta(tx, node, wallet)
			if ok {
				delta.Issued = append(delta.Issued, d)
			}
		}
	}

	return delta
}

// trustlineDelta computes the signed balance movement of one RippleState
// entry from the wallet's perspective. Trust-line balances are stored from
// the low party's point of view, so when the wallet is the high party the raw
// delta's sign inverts.
func (e *Extractor) trustlineDelta(tx domain.Transaction, node domain.AffectedNode, wallet string) (domain.IssuedDelta, bool) {
	ff := node.FinalFields
	if ff == nil || ff.HighLimit == nil || ff.LowLimit == nil {
		return domain.IssuedDelta{}, false
	}

	var highParty bool
	switch wallet {
	case ff.HighLimit.Issuer:
		highParty = true
	case ff.LowLimit.Issuer:
		highParty = false
	default:
		return domain.IssuedDelta{}, false
	}

	if node.PreviousFields == nil || node.PreviousFields.Balance == nil || ff.Balance == nil {
		return domain.IssuedDelta{}, false
	}
	prev, final := node.PreviousFields.Balance, ff.Balance
	if prev.Native || final.Native {
		e.logger.Warn("trust line balance in native form, skipping",
			slog.String("tx_hash", tx.Hash),
		)
		return domain.IssuedDelta{}, false
	}

	value := final.Value.Sub(prev.Value)
	counterparty := ff.HighLimit.Issuer
	if highParty {
		value = value.Neg()
		counterparty = ff.LowLimit.Issuer
	}

	return domain.IssuedDelta{
		Currency: final.Currency,
		Issuer:   counterparty,
		Delta: domain.Amount{
			Currency: final.Currency,
			Issuer:   counterparty,
			Value:    value,
		},
	}, true
}
