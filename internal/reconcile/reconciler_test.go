package reconcile_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sablewallet/sable/internal/domain"
	"github.com/sablewallet/sable/internal/meta"
	"github.com/sablewallet/sable/internal/reconcile"
	"github.com/sablewallet/sable/internal/store/memory"
)

const (
	wallet  = "rWalletAddress"
	other   = "rSomeoneElse"
	issuer  = "rIssuerGateway"
	network = "testnet"
)

func newReconciler(store domain.OfferStore) *reconcile.Reconciler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return reconcile.NewReconciler(store, meta.NewExtractor(logger), logger)
}

func u32(v uint32) *uint32 { return &v }

func native(drops int64) *domain.Amount {
	a := domain.NativeAmount(drops)
	return &a
}

func issued(t *testing.T, value string) *domain.Amount {
	t.Helper()
	a, err := domain.IssuedAmount("USD", issuer, value)
	if err != nil {
		t.Fatal(err)
	}
	return &a
}

// creationTx is an OfferCreate by the wallet selling 1 XRP for 10 USD that
// rests fully on the book.
func creationTx(seq uint32, hash string) domain.Transaction {
	a := domain.NativeAmount(1_000_000)
	b, _ := domain.IssuedAmount("USD", issuer, "10")
	return domain.Transaction{
		Hash:        hash,
		Type:        domain.TxTypeOfferCreate,
		Account:     wallet,
		Sequence:    seq,
		LedgerIndex: 900,
		CloseTime:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		TakerGets:   &a,
		TakerPays:   &b,
		Meta: []domain.AffectedNode{{
			Action:    domain.NodeCreated,
			EntryType: domain.EntryTypeOffer,
			NewFields: &domain.NodeFields{
				Account:   wallet,
				Sequence:  u32(seq),
				TakerGets: &a,
				TakerPays: &b,
			},
		}},
	}
}

// fillTx is someone else's transaction consuming part of the wallet's
// resting offer.
func fillTx(seq uint32, hash string, t *testing.T) domain.Transaction {
	t.Helper()
	return domain.Transaction{
		Hash:        hash,
		Type:        domain.TxTypeOfferCreate,
		Account:     other,
		LedgerIndex: 910,
		CloseTime:   time.Date(2026, 8, 1, 12, 5, 0, 0, time.UTC),
		Meta: []domain.AffectedNode{{
			Action:    domain.NodeModified,
			EntryType: domain.EntryTypeOffer,
			FinalFields: &domain.NodeFields{
				Account:   wallet,
				Sequence:  u32(seq),
				TakerGets: native(600_000),
				TakerPays: issued(t, "6"),
			},
			PreviousFields: &domain.NodeFields{
				TakerGets: native(1_000_000),
				TakerPays: issued(t, "10"),
			},
		}},
	}
}

func TestReconcile_CreationThenFill(t *testing.T) {
	ctx := context.Background()
	store := memory.NewOfferStore()
	r := newReconciler(store)

	txs := []domain.Transaction{creationTx(42, "CREATE42"), fillTx(42, "FILL1", t)}
	if err := r.Reconcile(ctx, txs, wallet, network); err != nil {
		t.Fatal(err)
	}

	record, err := store.GetOffer(ctx, domain.OfferKey{Wallet: wallet, Network: network, Sequence: 42})
	if err != nil {
		t.Fatal(err)
	}
	if record.Placeholder {
		t.Error("record with observed creation must not be a placeholder")
	}
	if record.OriginalReceived.Value.String() != "10" {
		t.Errorf("original received: got %s, want 10", record.OriginalReceived.Value)
	}
	if record.OriginalPaid.Drops.Int64() != 1_000_000 {
		t.Errorf("original paid: got %s, want 1000000", record.OriginalPaid.Drops)
	}
	if len(record.Fills) != 1 {
		t.Fatalf("got %d fills, want 1", len(record.Fills))
	}
	if record.Fills[0].Received.Value.String() != "4" {
		t.Errorf("fill received: got %s, want 4", record.Fills[0].Received.Value)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewOfferStore()
	r := newReconciler(store)

	txs := []domain.Transaction{creationTx(42, "CREATE42"), fillTx(42, "FILL1", t)}
	if err := r.Reconcile(ctx, txs, wallet, network); err != nil {
		t.Fatal(err)
	}
	// Re-running the identical batch must change nothing.
	if err := r.Reconcile(ctx, txs, wallet, network); err != nil {
		t.Fatal(err)
	}

	record, err := store.GetOffer(ctx, domain.OfferKey{Wallet: wallet, Network: network, Sequence: 42})
	if err != nil {
		t.Fatal(err)
	}
	if len(record.Fills) != 1 {
		t.Errorf("duplicate batch must not duplicate fills, got %d", len(record.Fills))
	}
	if record.OriginalReceived.Value.String() != "10" {
		t.Errorf("originals corrupted by re-run: got %s", record.OriginalReceived.Value)
	}
}

func TestReconcile_FillBeforeCreation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewOfferStore()
	r := newReconciler(store)

	// The fill page arrives first: a placeholder stands in for the record.
	if err := r.Reconcile(ctx, []domain.Transaction{fillTx(42, "FILL1", t)}, wallet, network); err != nil {
		t.Fatal(err)
	}

	record, err := store.GetOffer(ctx, domain.OfferKey{Wallet: wallet, Network: network, Sequence: 42})
	if err != nil {
		t.Fatal(err)
	}
	if !record.Placeholder {
		t.Fatal("record synthesized from a fill must be a placeholder")
	}
	if record.OriginalReceived.Value.String() != "4" {
		t.Errorf("placeholder originals: got %s, want the fill's 4", record.OriginalReceived.Value)
	}

	// A later page carries the creation: originals become authoritative and
	// the fill survives.
	if err := r.Reconcile(ctx, []domain.Transaction{creationTx(42, "CREATE42")}, wallet, network); err != nil {
		t.Fatal(err)
	}

	record, err = store.GetOffer(ctx, domain.OfferKey{Wallet: wallet, Network: network, Sequence: 42})
	if err != nil {
		t.Fatal(err)
	}
	if record.Placeholder {
		t.Error("observed creation must clear the placeholder flag")
	}
	if record.OriginalReceived.Value.String() != "10" {
		t.Errorf("originals: got %s, want 10", record.OriginalReceived.Value)
	}
	if len(record.Fills) != 1 {
		t.Errorf("fill lost on creation overwrite, got %d fills", len(record.Fills))
	}
}

func TestReconcile_CreationAfterFillSameBatch(t *testing.T) {
	ctx := context.Background()
	store := memory.NewOfferStore()
	r := newReconciler(store)

	// Batch order must not matter: creations apply before fills even when
	// the fill transaction precedes the creation in the slice.
	txs := []domain.Transaction{fillTx(42, "FILL1", t), creationTx(42, "CREATE42")}
	if err := r.Reconcile(ctx, txs, wallet, network); err != nil {
		t.Fatal(err)
	}

	record, err := store.GetOffer(ctx, domain.OfferKey{Wallet: wallet, Network: network, Sequence: 42})
	if err != nil {
		t.Fatal(err)
	}
	if record.Placeholder {
		t.Error("creation present in the batch, record must not be a placeholder")
	}
	if record.OriginalReceived.Value.String() != "10" {
		t.Errorf("originals: got %s, want 10", record.OriginalReceived.Value)
	}
	if len(record.Fills) != 1 {
		t.Errorf("got %d fills, want 1", len(record.Fills))
	}
}

// wrappingStore wraps every not-found miss the way a store built on an
// external driver would.
type wrappingStore struct {
	domain.OfferStore
}

func (s *wrappingStore) GetOffer(ctx context.Context, key domain.OfferKey) (*domain.OfferRecord, error) {
	record, err := s.OfferStore.GetOffer(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("store: get %d: %w", key.Sequence, err)
	}
	return record, nil
}

func TestReconcile_WrappedNotFound(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewOfferStore()
	r := newReconciler(&wrappingStore{OfferStore: inner})

	// A wrapped not-found from the store is still a miss: the creation
	// upserts and the early fill synthesizes a placeholder.
	txs := []domain.Transaction{creationTx(42, "CREATE42"), fillTx(43, "FILL1", t)}
	if err := r.Reconcile(ctx, txs, wallet, network); err != nil {
		t.Fatal(err)
	}

	record, err := inner.GetOffer(ctx, domain.OfferKey{Wallet: wallet, Network: network, Sequence: 43})
	if err != nil {
		t.Fatal(err)
	}
	if !record.Placeholder {
		t.Error("fill without a creation must synthesize a placeholder")
	}
}

func TestReconcile_DistinctOffers(t *testing.T) {
	ctx := context.Background()
	store := memory.NewOfferStore()
	r := newReconciler(store)

	txs := []domain.Transaction{creationTx(42, "CREATE42"), creationTx(43, "CREATE43")}
	if err := r.Reconcile(ctx, txs, wallet, network); err != nil {
		t.Fatal(err)
	}

	records, err := store.ListByWallet(ctx, wallet, network, domain.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	// Newest sequence first.
	if records[0].Key.Sequence != 43 || records[1].Key.Sequence != 42 {
		t.Errorf("order: got %d, %d", records[0].Key.Sequence, records[1].Key.Sequence)
	}
}
