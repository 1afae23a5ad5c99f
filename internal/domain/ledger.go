package domain

import "time"

// Transaction types consumed by the reconciler. Everything else passes
// through the fill extractor untouched (a Payment can still move offers, so
// no transaction type is filtered out there).
const (
	TxTypeOfferCreate = "OfferCreate"
	TxTypeOfferCancel = "OfferCancel"
	TxTypePayment     = "Payment"
)

// Ledger entry types consumed from transaction metadata.
const (
	EntryTypeOffer       = "Offer"
	EntryTypeAccountRoot = "AccountRoot"
	EntryTypeRippleState = "RippleState"
)

// NodeAction is what happened to a ledger entry within one transaction.
type NodeAction string

const (
	NodeCreated  NodeAction = "CreatedNode"
	NodeModified NodeAction = "ModifiedNode"
	NodeDeleted  NodeAction = "DeletedNode"
)

// NodeFields is one snapshot of a ledger entry's fields. Which fields are
// populated depends on the entry type; pointers distinguish absent from zero.
type NodeFields struct {
	Account   string
	Sequence  *uint32
	TakerGets *Amount
	TakerPays *Amount

	// Balance carries the XRP balance for AccountRoot entries and the signed
	// trust-line balance (low party's perspective) for RippleState entries.
	Balance *Amount

	// HighLimit and LowLimit identify the two parties of a RippleState entry
	// through their issuer fields.
	HighLimit *Amount
	LowLimit  *Amount
}

// AffectedNode is one entry in a transaction's metadata change set. Modified
// and deleted nodes carry FinalFields plus the PreviousFields that differed;
// created nodes carry NewFields only.
type AffectedNode struct {
	Action         NodeAction
	EntryType      string
	NewFields      *NodeFields
	FinalFields    *NodeFields
	PreviousFields *NodeFields
}

// Owner returns the account that owns the entry, looking at whichever
// snapshot carries it. A deleted node may only name the owner in its final
// fields, and PreviousFields is a partial diff, so all three are consulted.
func (n AffectedNode) Owner() string {
	for _, f := range []*NodeFields{n.NewFields, n.FinalFields, n.PreviousFields} {
		if f != nil && f.Account != "" {
			return f.Account
		}
	}
	return ""
}

// SequenceField returns the entry's offer sequence number from whichever
// snapshot carries it.
func (n AffectedNode) SequenceField() (uint32, bool) {
	for _, f := range []*NodeFields{n.NewFields, n.FinalFields, n.PreviousFields} {
		if f != nil && f.Sequence != nil {
			return *f.Sequence, true
		}
	}
	return 0, false
}

// Transaction is one validated ledger transaction together with its metadata
// change set, as delivered by the ledger gateway.
type Transaction struct {
	Hash        string
	Type        string
	Account     string
	Sequence    uint32
	Flags       uint32
	LedgerIndex uint32
	CloseTime   time.Time
	Validated   bool

	// TakerGets / TakerPays are the submitted legs of an OfferCreate, nil for
	// other transaction types.
	TakerGets  *Amount
	TakerPays  *Amount
	Expiration *time.Time

	Meta []AffectedNode
}

// BalanceDelta is the wallet's net balance movement caused by one
// transaction, used to surface trades that never touch one of the wallet's
// own offers.
type BalanceDelta struct {
	// NativeDrops is the signed XRP movement in drops; nil when the
	// transaction did not touch the wallet's AccountRoot.
	Native *Amount

	Issued []IssuedDelta
}

// IssuedDelta is one trust-line balance movement from the wallet's
// perspective.
type IssuedDelta struct {
	Currency string
	Issuer   string
	Delta    Amount
}
