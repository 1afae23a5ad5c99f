// Package reconcile maintains the persistent registry of the wallet's offers
// by merging observed ledger transactions into offer records.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sablewallet/sable/internal/domain"
	"github.com/sablewallet/sable/internal/meta"
)

// Reconciler merges batches of ledger transactions into the offer store. It
// is idempotent: re-running the same (possibly overlapping) transaction set
// neither duplicates fills nor corrupts the authoritative original amounts.
type Reconciler struct {
	store     domain.OfferStore
	extractor *meta.Extractor
	logger    *slog.Logger
	keys      *keyedMutex
}

// NewReconciler creates a Reconciler writing through the given store.
func NewReconciler(store domain.OfferStore, extractor *meta.Extractor, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		store:     store,
		extractor: extractor,
		logger:    logger.With(slog.String("component", "reconciler")),
		keys:      newKeyedMutex(),
	}
}

// Reconcile processes a transaction batch for one wallet in two passes.
// Pass 1 upserts authoritative creations; pass 2 appends fills, synthesizing
// placeholder records for fills that arrive before their creation
// transaction. Pass 1 fully completes before pass 2 starts, otherwise a
// placeholder's inferred originals could silently survive. Writes for the
// same (wallet, network) are serialized; distinct wallets reconcile
// concurrently.
func (r *Reconciler) Reconcile(ctx context.Context, txs []domain.Transaction, wallet, network string) error {
	unlock := r.keys.Lock(wallet + "/" + network)
	defer unlock()

	if err := r.applyCreations(ctx, txs, wallet, network); err != nil {
		return err
	}
	return r.applyFills(ctx, txs, wallet, network)
}

// applyCreations is pass 1: record the submitted amounts of every offer the
// wallet created. The submitted amounts are the only authoritative source for
// OriginalReceived/OriginalPaid; consumed amounts inferred later never
// overwrite them.
func (r *Reconciler) applyCreations(ctx context.Context, txs []domain.Transaction, wallet, network string) error {
	for _, tx := range txs {
		if tx.Type != domain.TxTypeOfferCreate || tx.Account != wallet {
			continue
		}
		if tx.TakerGets == nil || tx.TakerPays == nil {
			r.logger.Warn("offer create missing amounts, skipping",
				slog.String("tx_hash", tx.Hash),
			)
			continue
		}

		key := domain.OfferKey{Wallet: wallet, Network: network, Sequence: tx.Sequence}
		record, err := r.store.GetOffer(ctx, key)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("reconcile: get offer %d: %w", tx.Sequence, err)
		}
		if record == nil {
			record = &domain.OfferRecord{Key: key}
		}

		// The owner receives TakerPays and gives up TakerGets. Fills already
		// present on a placeholder record survive the overwrite.
		record.SetOriginals(*tx.TakerPays, *tx.TakerGets, tx.Hash, tx.LedgerIndex, tx.CloseTime, tx.Flags)
		record.Expiration = tx.Expiration

		if err := r.store.PutOffer(ctx, record); err != nil {
			return fmt.Errorf("reconcile: put offer %d: %w", tx.Sequence, err)
		}
	}
	return nil
}

// applyFills is pass 2: extract fills from every transaction and append them
// to the matching records, deduplicated by transaction hash.
func (r *Reconciler) applyFills(ctx context.Context, txs []domain.Transaction, wallet, network string) error {
	for _, tx := range txs {
		for _, fill := range r.extractor.ExtractFills(tx, wallet) {
			key := domain.OfferKey{Wallet: wallet, Network: network, Sequence: fill.Sequence}
			record, err := r.store.GetOffer(ctx, key)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("reconcile: get offer %d: %w", fill.Sequence, err)
			}
			if record == nil {
				record = r.placeholder(key, fill)
			}

			if !record.AppendFill(fill) {
				continue
			}
			if err := r.store.PutOffer(ctx, record); err != nil {
				return fmt.Errorf("reconcile: put offer %d: %w", fill.Sequence, err)
			}
		}
	}
	return nil
}

// placeholder synthesizes a record for a fill discovered before its creation
// transaction. The fill's amounts stand in for the originals until the real
// creation transaction is observed and overwrites them.
func (r *Reconciler) placeholder(key domain.OfferKey, fill domain.FillEvent) *domain.OfferRecord {
	r.logger.Info("fill seen before offer creation, synthesizing placeholder",
		slog.String("wallet", key.Wallet),
		slog.Uint64("sequence", uint64(key.Sequence)),
		slog.String("tx_hash", fill.TxHash),
	)
	return &domain.OfferRecord{
		Key:              key,
		OriginalReceived: fill.Received,
		OriginalPaid:     fill.Paid,
		Placeholder:      true,
		CreatedAt:        fill.Timestamp,
	}
}
