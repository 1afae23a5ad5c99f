package meta_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sablewallet/sable/internal/domain"
	"github.com/sablewallet/sable/internal/meta"
)

const (
	wallet = "rWalletAddress"
	other  = "rSomeoneElse"
	issuer = "rIssuerGateway"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func u32(v uint32) *uint32 { return &v }

func native(drops int64) *domain.Amount {
	a := domain.NativeAmount(drops)
	return &a
}

func issued(t *testing.T, currency, value string) *domain.Amount {
	t.Helper()
	a, err := domain.IssuedAmount(currency, issuer, value)
	if err != nil {
		t.Fatal(err)
	}
	return &a
}

func TestExtractFills_ImmediateFill(t *testing.T) {
	e := meta.NewExtractor(discardLogger())

	// Submitted: sell 1 XRP for 10 USD. The created entry holds only 60% of
	// each side, so 40% executed immediately.
	tx := domain.Transaction{
		Hash:        "TX1",
		Type:        domain.TxTypeOfferCreate,
		Account:     wallet,
		Sequence:    42,
		LedgerIndex: 900,
		CloseTime:   time.Now().UTC(),
		TakerGets:   native(1_000_000),
		TakerPays:   issued(t, "USD", "10"),
		Meta: []domain.AffectedNode{{
			Action:    domain.NodeCreated,
			EntryType: domain.EntryTypeOffer,
			NewFields: &domain.NodeFields{
				Account:   wallet,
				Sequence:  u32(42),
				TakerGets: native(600_000),
				TakerPays: issued(t, "USD", "6"),
			},
		}},
	}

	fills := e.ExtractFills(tx, wallet)
	if len(fills) != 1 {
		t.Fatalf("got %d fills, want 1", len(fills))
	}
	f := fills[0]
	if f.Sequence != 42 || f.TxHash != "TX1" {
		t.Errorf("identity: got seq=%d hash=%s", f.Sequence, f.TxHash)
	}
	if f.Received.Value.String() != "4" {
		t.Errorf("received: got %s USD, want 4", f.Received.Value)
	}
	if f.Paid.Drops.Int64() != 400_000 {
		t.Errorf("paid: got %s drops, want 400000", f.Paid.Drops)
	}
	if !f.HasPrice {
		t.Fatal("fill with both sides consumed should carry a price")
	}
	// 400000 drops paid per 4 USD received.
	if f.Price.String() != "100000" {
		t.Errorf("price: got %s, want 100000", f.Price)
	}
}

func TestExtractFills_RestingOnBook(t *testing.T) {
	e := meta.NewExtractor(discardLogger())

	// Offer rests untouched: the created entry equals the submission.
	tx := domain.Transaction{
		Hash:      "TX2",
		Type:      domain.TxTypeOfferCreate,
		Account:   wallet,
		Sequence:  43,
		TakerGets: native(1_000_000),
		TakerPays: issued(t, "USD", "10"),
		Meta: []domain.AffectedNode{{
			Action:    domain.NodeCreated,
			EntryType: domain.EntryTypeOffer,
			NewFields: &domain.NodeFields{
				Account:   wallet,
				Sequence:  u32(43),
				TakerGets: native(1_000_000),
				TakerPays: issued(t, "USD", "10"),
			},
		}},
	}

	if fills := e.ExtractFills(tx, wallet); len(fills) != 0 {
		t.Errorf("untouched offer should produce no fills, got %d", len(fills))
	}
}

func TestExtractFills_RestingOfferConsumed(t *testing.T) {
	e := meta.NewExtractor(discardLogger())

	// Someone else's transaction partially consumes the wallet's resting
	// offer. PreviousFields carries only the changed legs.
	tx := domain.Transaction{
		Hash:        "TX3",
		Type:        domain.TxTypeOfferCreate,
		Account:     other,
		LedgerIndex: 910,
		Meta: []domain.AffectedNode{{
			Action:    domain.NodeModified,
			EntryType: domain.EntryTypeOffer,
			FinalFields: &domain.NodeFields{
				Account:   wallet,
				Sequence:  u32(42),
				TakerGets: native(300_000),
				TakerPays: issued(t, "USD", "3"),
			},
			PreviousFields: &domain.NodeFields{
				TakerGets: native(600_000),
				TakerPays: issued(t, "USD", "6"),
			},
		}},
	}

	fills := e.ExtractFills(tx, wallet)
	if len(fills) != 1 {
		t.Fatalf("got %d fills, want 1", len(fills))
	}
	f := fills[0]
	if f.Sequence != 42 {
		t.Errorf("sequence: got %d, want 42", f.Sequence)
	}
	if f.Received.Value.String() != "3" {
		t.Errorf("received: got %s USD, want 3", f.Received.Value)
	}
	if f.Paid.Drops.Int64() != 300_000 {
		t.Errorf("paid: got %s drops, want 300000", f.Paid.Drops)
	}
}

func TestExtractFills_DeletedOfferFullyConsumed(t *testing.T) {
	e := meta.NewExtractor(discardLogger())

	// Deletion without PreviousFields: the final snapshot is the remaining
	// amount and all of it executed.
	tx := domain.Transaction{
		Hash:    "TX4",
		Type:    domain.TxTypePayment,
		Account: other,
		Meta: []domain.AffectedNode{{
			Action:    domain.NodeDeleted,
			EntryType: domain.EntryTypeOffer,
			FinalFields: &domain.NodeFields{
				Account:   wallet,
				Sequence:  u32(42),
				TakerGets: native(300_000),
				TakerPays: issued(t, "USD", "3"),
			},
		}},
	}

	fills := e.ExtractFills(tx, wallet)
	if len(fills) != 1 {
		t.Fatalf("got %d fills, want 1", len(fills))
	}
	if fills[0].Received.Value.String() != "3" {
		t.Errorf("received: got %s, want 3", fills[0].Received.Value)
	}
	if fills[0].Paid.Drops.Int64() != 300_000 {
		t.Errorf("paid: got %s, want 300000", fills[0].Paid.Drops)
	}
}

func TestExtractFills_OwnCancelIsNotAFill(t *testing.T) {
	e := meta.NewExtractor(discardLogger())

	tx := domain.Transaction{
		Hash:    "TX5",
		Type:    domain.TxTypeOfferCancel,
		Account: wallet,
		Meta: []domain.AffectedNode{{
			Action:    domain.NodeDeleted,
			EntryType: domain.EntryTypeOffer,
			FinalFields: &domain.NodeFields{
				Account:   wallet,
				Sequence:  u32(42),
				TakerGets: native(300_000),
				TakerPays: issued(t, "USD", "3"),
			},
		}},
	}

	if fills := e.ExtractFills(tx, wallet); len(fills) != 0 {
		t.Errorf("cancelling an offer should not produce fills, got %d", len(fills))
	}
}

func TestExtractFills_IgnoresOtherOwners(t *testing.T) {
	e := meta.NewExtractor(discardLogger())

	tx := domain.Transaction{
		Hash:    "TX6",
		Type:    domain.TxTypeOfferCreate,
		Account: other,
		Meta: []domain.AffectedNode{{
			Action:    domain.NodeModified,
			EntryType: domain.EntryTypeOffer,
			FinalFields: &domain.NodeFields{
				Account:   other,
				Sequence:  u32(7),
				TakerGets: native(100),
			},
			PreviousFields: &domain.NodeFields{
				TakerGets: native(200),
			},
		}},
	}

	if fills := e.ExtractFills(tx, wallet); len(fills) != 0 {
		t.Errorf("another account's offers should not produce fills, got %d", len(fills))
	}
}

func TestExtractFills_MissingSequenceSkipped(t *testing.T) {
	e := meta.NewExtractor(discardLogger())

	tx := domain.Transaction{
		Hash:    "TX7",
		Type:    domain.TxTypePayment,
		Account: other,
		Meta: []domain.AffectedNode{{
			Action:    domain.NodeModified,
			EntryType: domain.EntryTypeOffer,
			FinalFields: &domain.NodeFields{
				Account:   wallet,
				TakerGets: native(100),
			},
			PreviousFields: &domain.NodeFields{
				TakerGets: native(200),
			},
		}},
	}

	if fills := e.ExtractFills(tx, wallet); len(fills) != 0 {
		t.Errorf("a malformed node must be skipped, got %d fills", len(fills))
	}
}

func TestExtractBalanceDelta_AccountRoot(t *testing.T) {
	e := meta.NewExtractor(discardLogger())

	tx := domain.Transaction{
		Hash: "TX8",
		Meta: []domain.AffectedNode{{
			Action:    domain.NodeModified,
			EntryType: domain.EntryTypeAccountRoot,
			FinalFields: &domain.NodeFields{
				Account: wallet,
				Balance: native(9_500_000),
			},
			PreviousFields: &domain.NodeFields{
				Balance: native(10_000_000),
			},
		}},
	}

	delta := e.ExtractBalanceDelta(tx, wallet)
	if delta.Native == nil {
		t.Fatal("expected a native delta")
	}
	if delta.Native.Drops.Int64() != -500_000 {
		t.Errorf("got %s drops, want -500000", delta.Native.Drops)
	}
}

func TestExtractBalanceDelta_TrustlineLowParty(t *testing.T) {
	e := meta.NewExtractor(discardLogger())

	// Wallet is the low party; the stored balance is already from its
	// perspective.
	tx := domain.Transaction{
		Hash: "TX9",
		Meta: []domain.AffectedNode{{
			Action:    domain.NodeModified,
			EntryType: domain.EntryTypeRippleState,
			FinalFields: &domain.NodeFields{
				Balance:   issued(t, "USD", "15"),
				HighLimit: &domain.Amount{Currency: "USD", Issuer: issuer},
				LowLimit:  &domain.Amount{Currency: "USD", Issuer: wallet},
			},
			PreviousFields: &domain.NodeFields{
				Balance: issued(t, "USD", "10"),
			},
		}},
	}

	delta := e.ExtractBalanceDelta(tx, wallet)
	if len(delta.Issued) != 1 {
		t.Fatalf("got %d issued deltas, want 1", len(delta.Issued))
	}
	d := delta.Issued[0]
	if d.Delta.Value.String() != "5" {
		t.Errorf("got %s, want 5", d.Delta.Value)
	}
	if d.Issuer != issuer {
		t.Errorf("counterparty: got %s, want %s", d.Issuer, issuer)
	}
}

func TestExtractBalanceDelta_TrustlineHighPartySignInverts(t *testing.T) {
	e := meta.NewExtractor(discardLogger())

	// Wallet is the high party; a rising stored balance means the wallet's
	// own balance fell.
	tx := domain.Transaction{
		Hash: "TX10",
		Meta: []domain.AffectedNode{{
			Action:    domain.NodeModified,
			EntryType: domain.EntryTypeRippleState,
			FinalFields: &domain.NodeFields{
				Balance:   issued(t, "USD", "15"),
				HighLimit: &domain.Amount{Currency: "USD", Issuer: wallet},
				LowLimit:  &domain.Amount{Currency: "USD", Issuer: issuer},
			},
			PreviousFields: &domain.NodeFields{
				Balance: issued(t, "USD", "10"),
			},
		}},
	}

	delta := e.ExtractBalanceDelta(tx, wallet)
	if len(delta.Issued) != 1 {
		t.Fatalf("got %d issued deltas, want 1", len(delta.Issued))
	}
	if delta.Issued[0].Delta.Value.String() != "-5" {
		t.Errorf("got %s, want -5", delta.Issued[0].Delta.Value)
	}
}

func TestExtractBalanceDelta_NotAParty(t *testing.T) {
	e := meta.NewExtractor(discardLogger())

	tx := domain.Transaction{
		Hash: "TX11",
		Meta: []domain.AffectedNode{{
			Action:    domain.NodeModified,
			EntryType: domain.EntryTypeRippleState,
			FinalFields: &domain.NodeFields{
				Balance:   issued(t, "USD", "15"),
				HighLimit: &domain.Amount{Currency: "USD", Issuer: issuer},
				LowLimit:  &domain.Amount{Currency: "USD", Issuer: other},
			},
			PreviousFields: &domain.NodeFields{
				Balance: issued(t, "USD", "10"),
			},
		}},
	}

	delta := e.ExtractBalanceDelta(tx, wallet)
	if len(delta.Issued) != 0 || delta.Native != nil {
		t.Error("unrelated trust line should not produce a delta")
	}
}
