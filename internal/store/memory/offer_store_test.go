package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sablewallet/sable/internal/domain"
	"github.com/sablewallet/sable/internal/store/memory"
)

func key(seq uint32) domain.OfferKey {
	return domain.OfferKey{Wallet: "rWallet", Network: "testnet", Sequence: seq}
}

func TestOfferStore_GetMissing(t *testing.T) {
	s := memory.NewOfferStore()
	if _, err := s.GetOffer(context.Background(), key(1)); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestOfferStore_PutGetIsolation(t *testing.T) {
	ctx := context.Background()
	s := memory.NewOfferStore()

	record := &domain.OfferRecord{Key: key(1)}
	if err := s.PutOffer(ctx, record); err != nil {
		t.Fatal(err)
	}

	// Mutating the caller's copy after Put must not leak into the store.
	recv, _ := domain.IssuedAmount("USD", "rIssuer", "4")
	record.AppendFill(domain.FillEvent{TxHash: "TX1", Received: recv})

	got, err := s.GetOffer(ctx, key(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Fills) != 0 {
		t.Error("stored record aliased the caller's slice")
	}
	if got.UpdatedAt.IsZero() {
		t.Error("PutOffer should stamp UpdatedAt")
	}
}

func TestOfferStore_ListPagination(t *testing.T) {
	ctx := context.Background()
	s := memory.NewOfferStore()

	for _, seq := range []uint32{1, 2, 3, 4, 5} {
		if err := s.PutOffer(ctx, &domain.OfferRecord{Key: key(seq)}); err != nil {
			t.Fatal(err)
		}
	}

	page, err := s.ListByWallet(ctx, "rWallet", "testnet", domain.ListOpts{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 {
		t.Fatalf("got %d records, want 2", len(page))
	}
	// Newest first, offset skips sequence 5.
	if page[0].Key.Sequence != 4 || page[1].Key.Sequence != 3 {
		t.Errorf("got sequences %d, %d", page[0].Key.Sequence, page[1].Key.Sequence)
	}

	empty, err := s.ListByWallet(ctx, "rWallet", "testnet", domain.ListOpts{Offset: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("offset past the end should return nothing, got %d", len(empty))
	}
}

func TestOfferStore_DeleteWalletScoped(t *testing.T) {
	ctx := context.Background()
	s := memory.NewOfferStore()

	if err := s.PutOffer(ctx, &domain.OfferRecord{Key: key(1)}); err != nil {
		t.Fatal(err)
	}
	otherKey := domain.OfferKey{Wallet: "rOther", Network: "testnet", Sequence: 1}
	if err := s.PutOffer(ctx, &domain.OfferRecord{Key: otherKey}); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteWallet(ctx, "rWallet", "testnet"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetOffer(ctx, key(1)); !errors.Is(err, domain.ErrNotFound) {
		t.Error("wallet's records should be gone")
	}
	if _, err := s.GetOffer(ctx, otherKey); err != nil {
		t.Error("another wallet's records must survive the clear")
	}
}
