package xrpl

import (
	"encoding/json"
	"fmt"

	"github.com/sablewallet/sable/internal/domain"
	"github.com/sablewallet/sable/internal/meta"
)

// convertTransaction maps one account_tx item into a domain transaction.
func convertTransaction(item accountTxItem) (domain.Transaction, error) {
	wire := item.transaction()
	if wire == nil {
		return domain.Transaction{}, fmt.Errorf("transaction payload missing")
	}

	tx := domain.Transaction{
		Hash:        wire.Hash,
		Type:        wire.TransactionType,
		Account:     wire.Account,
		Sequence:    wire.Sequence,
		Flags:       wire.Flags,
		LedgerIndex: wire.LedgerIndex,
		Validated:   item.Validated,
	}
	if wire.Date > 0 {
		tx.CloseTime = meta.FromRippleTime(wire.Date)
	}
	if wire.Expiration > 0 {
		exp := meta.FromRippleTime(wire.Expiration)
		tx.Expiration = &exp
	}

	if wire.TransactionType == domain.TxTypeOfferCreate {
		gets, err := domain.ParseAmount(wire.TakerGets)
		if err != nil {
			return domain.Transaction{}, fmt.Errorf("taker gets: %w", err)
		}
		pays, err := domain.ParseAmount(wire.TakerPays)
		if err != nil {
			return domain.Transaction{}, fmt.Errorf("taker pays: %w", err)
		}
		tx.TakerGets = &gets
		tx.TakerPays = &pays
	}

	if len(item.Meta) > 0 && item.Meta[0] == '{' {
		var m txMeta
		if err := json.Unmarshal(item.Meta, &m); err != nil {
			return domain.Transaction{}, fmt.Errorf("meta: %w", err)
		}
		for _, node := range m.AffectedNodes {
			converted, ok := convertNode(node)
			if ok {
				tx.Meta = append(tx.Meta, converted)
			}
		}
	}

	return tx, nil
}

// convertNode maps one AffectedNodes entry; unconsumed entry types pass
// through untyped fields as nil so the extractor skips them cheaply.
func convertNode(wire affectedNodeWire) (domain.AffectedNode, bool) {
	var node domain.AffectedNode
	var inner *nodeWire

	switch {
	case wire.CreatedNode != nil:
		node.Action = domain.NodeCreated
		inner = wire.CreatedNode
	case wire.ModifiedNode != nil:
		node.Action = domain.NodeModified
		inner = wire.ModifiedNode
	case wire.DeletedNode != nil:
		node.Action = domain.NodeDeleted
		inner = wire.DeletedNode
	default:
		return domain.AffectedNode{}, false
	}

	node.EntryType = inner.LedgerEntryType
	node.NewFields = convertFields(inner.NewFields)
	node.FinalFields = convertFields(inner.FinalFields)
	node.PreviousFields = convertFields(inner.PreviousFields)
	return node, true
}

func convertFields(wire *fieldsWire) *domain.NodeFields {
	if wire == nil {
		return nil
	}
	fields := &domain.NodeFields{
		Account:  wire.Account,
		Sequence: wire.Sequence,
	}
	fields.TakerGets = parseOptional(wire.TakerGets)
	fields.TakerPays = parseOptional(wire.TakerPays)
	fields.Balance = parseOptional(wire.Balance)
	fields.HighLimit = parseOptional(wire.HighLimit)
	fields.LowLimit = parseOptional(wire.LowLimit)
	return fields
}

// parseOptional decodes an amount field that may be absent or malformed;
// the extractor treats nil as absent and logs at that layer.
func parseOptional(raw any) *domain.Amount {
	if raw == nil {
		return nil
	}
	a, err := domain.ParseAmount(raw)
	if err != nil {
		return nil
	}
	return &a
}

func convertBookOffer(wire bookOfferWire) (domain.RawBookOffer, error) {
	gets, err := domain.ParseAmount(wire.TakerGets)
	if err != nil {
		return domain.RawBookOffer{}, fmt.Errorf("taker gets: %w", err)
	}
	pays, err := domain.ParseAmount(wire.TakerPays)
	if err != nil {
		return domain.RawBookOffer{}, fmt.Errorf("taker pays: %w", err)
	}
	return domain.RawBookOffer{
		Account:   wire.Account,
		Sequence:  wire.Sequence,
		TakerGets: gets,
		TakerPays: pays,
	}, nil
}

func convertLiveOffer(wire accountOfferWire) (domain.LiveOffer, error) {
	gets, err := domain.ParseAmount(wire.TakerGets)
	if err != nil {
		return domain.LiveOffer{}, fmt.Errorf("taker gets: %w", err)
	}
	pays, err := domain.ParseAmount(wire.TakerPays)
	if err != nil {
		return domain.LiveOffer{}, fmt.Errorf("taker pays: %w", err)
	}
	return domain.LiveOffer{
		Sequence:  wire.Seq,
		TakerGets: gets,
		TakerPays: pays,
		Flags:     wire.Flags,
	}, nil
}
