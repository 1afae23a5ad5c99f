package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FillEvent records one execution against a wallet's offer, reconstructed
// from transaction metadata. FillEvents are immutable once appended to an
// OfferRecord; identity for deduplication is (Sequence, TxHash).
type FillEvent struct {
	Sequence    uint32    `json:"sequence"`     // sequence number of the offer that was filled
	TxHash      string    `json:"tx_hash"`      // hash of the ledger transaction that caused the fill
	Timestamp   time.Time `json:"timestamp"`
	LedgerIndex uint32    `json:"ledger_index"`
	Received    Amount    `json:"received"` // what the offer owner received in this fill
	Paid        Amount    `json:"paid"`     // what the offer owner gave up in this fill

	// Price is Paid per Received at ledger scale, so native legs are priced
	// per drop, not per XRP. HasPrice is false when the fill consumed only
	// one side.
	Price    decimal.Decimal `json:"price"`
	HasPrice bool            `json:"has_price"`
}

// NewFillEvent builds a FillEvent and derives its execution price from the
// two consumed amounts.
func NewFillEvent(seq uint32, txHash string, ts time.Time, ledgerIndex uint32, received, paid Amount) FillEvent {
	f := FillEvent{
		Sequence:    seq,
		TxHash:      txHash,
		Timestamp:   ts,
		LedgerIndex: ledgerIndex,
		Received:    received,
		Paid:        paid,
	}
	recv := received.LedgerValue()
	if recv.IsPositive() && paid.IsPositive() {
		f.Price = paid.LedgerValue().Div(recv)
		f.HasPrice = true
	}
	return f
}
