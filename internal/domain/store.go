package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// OfferStore persists offer records keyed by (wallet, network, sequence).
// The reconciler is the only writer; reads may be concurrent.
type OfferStore interface {
	GetOffer(ctx context.Context, key OfferKey) (*OfferRecord, error)
	PutOffer(ctx context.Context, record *OfferRecord) error
	ListByWallet(ctx context.Context, wallet, network string, opts ListOpts) ([]*OfferRecord, error)

	// DeleteWallet removes every record for the wallet on the given network.
	// This backs the explicit user data-clear and nothing else.
	DeleteWallet(ctx context.Context, wallet, network string) error
}

// BookCache caches built depth curves for a short TTL so repeated estimate
// queries against the same pair do not refetch the book.
type BookCache interface {
	SetDepth(ctx context.Context, pair TradingPair, side BookSide, depth Depth, ttl time.Duration) error
	GetDepth(ctx context.Context, pair TradingPair, side BookSide) (Depth, error)
}

// LockManager serializes reconciliation per wallet across processes. Acquire
// returns ErrLockHeld when another holder owns the key.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// AccountInfo is the subset of account state the sizing calculator needs.
type AccountInfo struct {
	Address        string
	BalanceDrops   Amount // native balance
	OwnerCount     uint32
	TrustlineCount int
	Sequence       uint32
}

// ReserveParams are the ledger's current reserve requirements in drops.
type ReserveParams struct {
	BaseReserveDrops      int64
	IncrementReserveDrops int64
}

// LedgerGateway is the ledger client collaborator. All methods perform I/O;
// the analytics core below them is pure.
type LedgerGateway interface {
	// AccountTransactions returns the wallet's historical transactions with
	// their metadata change sets, most recent first, along with the raw
	// payload of each page for archival.
	AccountTransactions(ctx context.Context, address string, limit int) ([]Transaction, []byte, error)

	// BookOffers returns the resting orders for one side of a pair in
	// matching-priority order. A buy query returns offers whose maker sells
	// the base asset; a sell query returns offers whose maker buys it.
	BookOffers(ctx context.Context, pair TradingPair, side BookSide, limit int) ([]RawBookOffer, error)

	// AccountOffers returns the wallet's currently resting offers.
	AccountOffers(ctx context.Context, address string) ([]LiveOffer, error)

	AccountInfo(ctx context.Context, address string) (AccountInfo, error)
	ServerReserves(ctx context.Context) (ReserveParams, error)
}

// RawBookOffer is one resting order as delivered by the book snapshot, both
// legs still in wire form.
type RawBookOffer struct {
	Account   string
	Sequence  uint32
	TakerGets Amount // what the maker pays out
	TakerPays Amount // what the maker wants
}
