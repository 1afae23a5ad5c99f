package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/sablewallet/sable/internal/blob/s3"
	"github.com/sablewallet/sable/internal/domain"
	"github.com/sablewallet/sable/internal/meta"
	"github.com/sablewallet/sable/internal/reconcile"
	"github.com/sablewallet/sable/internal/stats"
)

// OfferService drives the offer lifecycle pipeline: fetch history, archive
// the raw page, reconcile records, and serve enriched views of them.
type OfferService struct {
	gateway    domain.LedgerGateway
	store      domain.OfferStore
	reconciler *reconcile.Reconciler
	extractor  *meta.Extractor
	locks      domain.LockManager // nil when running single-process
	archiver   *s3blob.Archiver   // nil when archival is disabled
	logger     *slog.Logger

	network     string
	txPageLimit int
	lockTTL     time.Duration
}

// NewOfferService creates an OfferService. locks and archiver may be nil.
func NewOfferService(
	gateway domain.LedgerGateway,
	store domain.OfferStore,
	reconciler *reconcile.Reconciler,
	extractor *meta.Extractor,
	locks domain.LockManager,
	archiver *s3blob.Archiver,
	network string,
	txPageLimit int,
	lockTTL time.Duration,
	logger *slog.Logger,
) *OfferService {
	return &OfferService{
		gateway:     gateway,
		store:       store,
		reconciler:  reconciler,
		extractor:   extractor,
		locks:       locks,
		archiver:    archiver,
		logger:      logger.With(slog.String("service", "offer")),
		network:     network,
		txPageLimit: txPageLimit,
		lockTTL:     lockTTL,
	}
}

// Sync fetches the wallet's recent transaction history and reconciles it
// into the offer store. Concurrent syncs of the same wallet are serialized
// through the lock manager; a held lock means another process is already
// syncing and the call returns domain.ErrLockHeld.
func (s *OfferService) Sync(ctx context.Context, wallet string) error {
	if s.locks != nil {
		unlock, err := s.locks.Acquire(ctx, "sync:"+wallet+"/"+s.network, s.lockTTL)
		if err != nil {
			return fmt.Errorf("offer_service: sync %s: %w", wallet, err)
		}
		defer unlock()
	}

	txs, raw, err := s.gateway.AccountTransactions(ctx, wallet, s.txPageLimit)
	if err != nil {
		return fmt.Errorf("offer_service: fetch transactions for %s: %w", wallet, err)
	}

	if s.archiver != nil && len(raw) > 0 {
		if _, archiveErr := s.archiver.ArchiveTxPage(ctx, wallet, s.network, raw); archiveErr != nil {
			// Archival is an audit trail, not a dependency of reconciliation.
			s.logger.WarnContext(ctx, "archive failed, continuing",
				slog.String("wallet", wallet),
				slog.String("error", archiveErr.Error()),
			)
		}
	}

	if err := s.reconciler.Reconcile(ctx, txs, wallet, s.network); err != nil {
		return fmt.Errorf("offer_service: reconcile %s: %w", wallet, err)
	}

	s.logger.InfoContext(ctx, "wallet synced",
		slog.String("wallet", wallet),
		slog.Int("transactions", len(txs)),
	)
	return nil
}

// ListEnriched returns the wallet's offer records with derived execution
// statistics. The live offer snapshot distinguishes cancelled offers from
// resting ones; if it cannot be fetched the records are still returned, with
// every absent offer treated as off-book.
func (s *OfferService) ListEnriched(ctx context.Context, wallet string, opts domain.ListOpts) ([]stats.EnrichedOffer, error) {
	records, err := s.store.ListByWallet(ctx, wallet, s.network, opts)
	if err != nil {
		return nil, fmt.Errorf("offer_service: list offers for %s: %w", wallet, err)
	}

	liveBySeq := make(map[uint32]domain.LiveOffer)
	live, err := s.gateway.AccountOffers(ctx, wallet)
	if err != nil {
		s.logger.WarnContext(ctx, "live offer snapshot unavailable",
			slog.String("wallet", wallet),
			slog.String("error", err.Error()),
		)
	} else {
		for _, offer := range live {
			liveBySeq[offer.Sequence] = offer
		}
	}

	enriched := make([]stats.EnrichedOffer, 0, len(records))
	for _, record := range records {
		var liveOffer *domain.LiveOffer
		if lo, ok := liveBySeq[record.Key.Sequence]; ok {
			liveOffer = &lo
		}
		enriched = append(enriched, stats.Enrich(record, liveOffer))
	}
	return enriched, nil
}

// TxDelta is one transaction's net balance movement for the wallet.
type TxDelta struct {
	TxHash    string
	CloseTime time.Time
	Delta     domain.BalanceDelta
}

// BalanceActivity returns per-transaction balance deltas for the wallet's
// recent history. This surfaces taker-side trades that never touched one of
// the wallet's own offers.
func (s *OfferService) BalanceActivity(ctx context.Context, wallet string, limit int) ([]TxDelta, error) {
	txs, _, err := s.gateway.AccountTransactions(ctx, wallet, limit)
	if err != nil {
		return nil, fmt.Errorf("offer_service: fetch transactions for %s: %w", wallet, err)
	}

	deltas := make([]TxDelta, 0, len(txs))
	for _, tx := range txs {
		delta := s.extractor.ExtractBalanceDelta(tx, wallet)
		if delta.Native == nil && len(delta.Issued) == 0 {
			continue
		}
		deltas = append(deltas, TxDelta{TxHash: tx.Hash, CloseTime: tx.CloseTime, Delta: delta})
	}
	return deltas, nil
}

// ClearWallet deletes every stored record for the wallet. This is the only
// path that removes offer records.
func (s *OfferService) ClearWallet(ctx context.Context, wallet string) error {
	if err := s.store.DeleteWallet(ctx, wallet, s.network); err != nil {
		return fmt.Errorf("offer_service: clear wallet %s: %w", wallet, err)
	}
	s.logger.InfoContext(ctx, "wallet data cleared", slog.String("wallet", wallet))
	return nil
}
