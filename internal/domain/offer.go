package domain

import "time"

// OfferKey uniquely identifies one of the wallet's offers. Sequence numbers
// are only unique per account per network, so all three parts are required.
type OfferKey struct {
	Wallet   string
	Network  string
	Sequence uint32
}

// OfferRecord is the persistent aggregate for one of the user's offers: the
// authoritative submitted amounts plus every fill discovered for it. Records
// are created and mutated only by the reconciler and never deleted except by
// an explicit user data-clear.
type OfferRecord struct {
	Key OfferKey

	// OriginalReceived and OriginalPaid are the amounts submitted at offer
	// creation (TakerPays / TakerGets from the owner's perspective). They are
	// set exactly once from the creation transaction. When a fill is seen
	// before its creation transaction, Placeholder is true and these hold the
	// fill's amounts as a best-effort substitute until the real creation
	// transaction overwrites them.
	OriginalReceived Amount
	OriginalPaid     Amount
	Placeholder      bool

	CreatedAt          time.Time
	CreatedTxHash      string
	CreatedLedgerIndex uint32

	// Fills is append-only in discovery order, deduplicated by TxHash.
	Fills []FillEvent

	Expiration *time.Time
	Flags      uint32

	UpdatedAt time.Time
}

// HasFill reports whether a fill with the given transaction hash is already
// recorded.
func (r *OfferRecord) HasFill(txHash string) bool {
	for _, f := range r.Fills {
		if f.TxHash == txHash {
			return true
		}
	}
	return false
}

// AppendFill adds a fill unless one with the same TxHash is already present.
// It returns true when the fill was appended. Duplicate fills are silently
// discarded; dedup is a hard guarantee, not a reported error.
func (r *OfferRecord) AppendFill(f FillEvent) bool {
	if r.HasFill(f.TxHash) {
		return false
	}
	r.Fills = append(r.Fills, f)
	return true
}

// SetOriginals records the authoritative submitted amounts from the offer's
// creation transaction, replacing any placeholder inference. Existing fills
// are untouched.
func (r *OfferRecord) SetOriginals(received, paid Amount, txHash string, ledgerIndex uint32, createdAt time.Time, flags uint32) {
	r.OriginalReceived = received
	r.OriginalPaid = paid
	r.CreatedTxHash = txHash
	r.CreatedLedgerIndex = ledgerIndex
	r.CreatedAt = createdAt
	r.Flags = flags
	r.Placeholder = false
}

// Clone returns a deep copy of the record so callers holding a store result
// can mutate it without aliasing stored state. Fill amounts are immutable, so
// sharing their inner values is safe.
func (r *OfferRecord) Clone() *OfferRecord {
	out := *r
	out.Fills = make([]FillEvent, len(r.Fills))
	copy(out.Fills, r.Fills)
	if r.Expiration != nil {
		exp := *r.Expiration
		out.Expiration = &exp
	}
	return &out
}

// LiveOffer is one row of the account's current resting-offer snapshot, used
// to distinguish cancelled offers from ones still on the book.
type LiveOffer struct {
	Sequence  uint32
	TakerGets Amount
	TakerPays Amount
	Flags     uint32
}
