package meta

import (
	"log/slog"

	"github.com/sablewallet/sable/internal/domain"
)

// Extractor turns one transaction's metadata change set into the fill events
// and balance deltas that concern a single wallet. It is pure apart from
// diagnostics: malformed entries are skipped and logged, never fatal.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger.With(slog.String("component", "meta_extractor"))}
}

// ExtractFills returns every fill the transaction caused against the
// wallet's offers: the immediate portion of the wallet's own OfferCreate,
// plus consumption of the wallet's resting offers by anyone else's
// transaction.
func (e *Extractor) ExtractFills(tx domain.Transaction, wallet string) []domain.FillEvent {
	var fills []domain.FillEvent

	if f, ok := e.immediateFill(tx, wallet); ok {
		fills = append(fills, f)
	}

	for _, node := range tx.Meta {
		if node.EntryType != domain.EntryTypeOffer {
			continue
		}
		if node.Action != domain.NodeModified && node.Action != domain.NodeDeleted {
			continue
		}
		if node.Owner() != wallet {
			continue
		}
		// The wallet cancelling its own offer deletes the entry without any
		// consumption; the leftover amounts are not a fill.
		if node.Action == domain.NodeDeleted && tx.Account == wallet && tx.Type == domain.TxTypeOfferCancel {
			continue
		}

		seq, ok := node.SequenceField()
		if !ok {
			e.logger.Warn("offer node missing sequence, skipping",
				slog.String("tx_hash", tx.Hash),
				slog.String("wallet", wallet),
			)
			continue
		}

		received, recvOK := consumedSide(node, takerPays)
		paid, paidOK := consumedSide(node, takerGets)
		if !recvOK && !paidOK {
			continue
		}

		fills = append(fills, domain.NewFillEvent(seq, tx.Hash, tx.CloseTime, tx.LedgerIndex, received, paid))
	}

	return fills
}

// immediateFill detects the taker portion of the wallet's own OfferCreate:
// when the offer lands on the book already partially consumed, the created
// entry carries less than was submitted and the difference executed
// immediately.
func (e *Extractor) immediateFill(tx domain.Transaction, wallet string) (domain.FillEvent, bool) {
	if tx.Type != domain.TxTypeOfferCreate || tx.Account != wallet {
		return domain.FillEvent{}, false
	}
	if tx.TakerGets == nil || tx.TakerPays == nil {
		e.logger.Warn("offer create missing submitted amounts, skipping",
			slog.String("tx_hash", tx.Hash),
		)
		return domain.FillEvent{}, false
	}

	for _, node := range tx.Meta {
		if node.Action != domain.NodeCreated || node.EntryType != domain.EntryTypeOffer {
			continue
		}
		if node.NewFields == nil || node.NewFields.Account != wallet {
			continue
		}
		createdGets := amountOrZero(node.NewFields.TakerGets)
		createdPays := amountOrZero(node.NewFields.TakerPays)

		received, recvOK := tx.TakerPays.Consumed(createdPays)
		paid, paidOK := tx.TakerGets.Consumed(createdGets)
		if !recvOK && !paidOK {
			return domain.FillEvent{}, false
		}
		return domain.NewFillEvent(tx.Sequence, tx.Hash, tx.CloseTime, tx.LedgerIndex, received, paid), true
	}

	return domain.FillEvent{}, false
}

// side selects one leg of an offer entry.
type side func(*domain.NodeFields) *domain.Amount

func takerGets(f *domain.NodeFields) *domain.Amount { return f.TakerGets }
func takerPays(f *domain.NodeFields) *domain.Amount { return f.TakerPays }

// consumedSide computes previous - final for one leg of a modified or
// deleted offer entry. PreviousFields is a partial diff: when it omits the
// leg on a modified node, that side did not change. On a deleted node the
// final amount is absent, meaning the full remaining amount was consumed.
func consumedSide(node domain.AffectedNode, leg side) (domain.Amount, bool) {
	var prev, final domain.Amount

	if node.PreviousFields != nil && leg(node.PreviousFields) != nil {
		prev = *leg(node.PreviousFields)
	} else if node.Action == domain.NodeDeleted && node.FinalFields != nil && leg(node.FinalFields) != nil {
		// Deletion with no recorded previous value: the final snapshot is the
		// last remaining amount, all of it consumed.
		prev = *leg(node.FinalFields)
	} else {
		return domain.Amount{}, false
	}

	if node.Action != domain.NodeDeleted && node.FinalFields != nil && leg(node.FinalFields) != nil {
		final = *leg(node.FinalFields)
	}

	return prev.Consumed(final)
}

func amountOrZero(a *domain.Amount) domain.Amount {
	if a == nil {
		return domain.Amount{}
	}
	return *a
}
