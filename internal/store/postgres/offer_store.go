package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sablewallet/sable/internal/domain"
)

// OfferStore implements domain.OfferStore using PostgreSQL. Amounts and fill
// histories are stored as JSONB so arbitrary-precision values survive
// round-trips untouched.
type OfferStore struct {
	pool *pgxpool.Pool
}

// NewOfferStore creates an OfferStore backed by the given connection pool.
func NewOfferStore(pool *pgxpool.Pool) *OfferStore {
	return &OfferStore{pool: pool}
}

const offerSelectCols = `wallet, network, sequence, original_received, original_paid,
	placeholder, created_at, created_tx_hash, created_ledger_index,
	fills, expiration, flags, updated_at`

// PutOffer upserts a record keyed by (wallet, network, sequence).
func (s *OfferStore) PutOffer(ctx context.Context, record *domain.OfferRecord) error {
	received, err := json.Marshal(record.OriginalReceived)
	if err != nil {
		return fmt.Errorf("postgres: marshal original received: %w", err)
	}
	paid, err := json.Marshal(record.OriginalPaid)
	if err != nil {
		return fmt.Errorf("postgres: marshal original paid: %w", err)
	}
	fills, err := json.Marshal(record.Fills)
	if err != nil {
		return fmt.Errorf("postgres: marshal fills: %w", err)
	}

	const query = `
		INSERT INTO offers (
			wallet, network, sequence, original_received, original_paid,
			placeholder, created_at, created_tx_hash, created_ledger_index,
			fills, expiration, flags, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW()
		)
		ON CONFLICT (wallet, network, sequence) DO UPDATE SET
			original_received = EXCLUDED.original_received,
			original_paid = EXCLUDED.original_paid,
			placeholder = EXCLUDED.placeholder,
			created_at = EXCLUDED.created_at,
			created_tx_hash = EXCLUDED.created_tx_hash,
			created_ledger_index = EXCLUDED.created_ledger_index,
			fills = EXCLUDED.fills,
			expiration = EXCLUDED.expiration,
			flags = EXCLUDED.flags,
			updated_at = NOW()`

	_, err = s.pool.Exec(ctx, query,
		record.Key.Wallet, record.Key.Network, int64(record.Key.Sequence),
		received, paid, record.Placeholder,
		record.CreatedAt, record.CreatedTxHash, int64(record.CreatedLedgerIndex),
		fills, record.Expiration, int64(record.Flags),
	)
	if err != nil {
		return fmt.Errorf("postgres: put offer %d: %w", record.Key.Sequence, err)
	}
	return nil
}

func scanOfferFromRow(scanner interface{ Scan(dest ...any) error }) (*domain.OfferRecord, error) {
	var record domain.OfferRecord
	var sequence, ledgerIndex, flags int64
	var received, paid, fills []byte

	err := scanner.Scan(
		&record.Key.Wallet, &record.Key.Network, &sequence,
		&received, &paid, &record.Placeholder,
		&record.CreatedAt, &record.CreatedTxHash, &ledgerIndex,
		&fills, &record.Expiration, &flags, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Key.Sequence = uint32(sequence)
	record.CreatedLedgerIndex = uint32(ledgerIndex)
	record.Flags = uint32(flags)

	if err := json.Unmarshal(received, &record.OriginalReceived); err != nil {
		return nil, fmt.Errorf("unmarshal original received: %w", err)
	}
	if err := json.Unmarshal(paid, &record.OriginalPaid); err != nil {
		return nil, fmt.Errorf("unmarshal original paid: %w", err)
	}
	if err := json.Unmarshal(fills, &record.Fills); err != nil {
		return nil, fmt.Errorf("unmarshal fills: %w", err)
	}

	return &record, nil
}

// GetOffer retrieves a single record by key.
func (s *OfferStore) GetOffer(ctx context.Context, key domain.OfferKey) (*domain.OfferRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+offerSelectCols+` FROM offers
		 WHERE wallet = $1 AND network = $2 AND sequence = $3`,
		key.Wallet, key.Network, int64(key.Sequence))

	record, err := scanOfferFromRow(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get offer %d: %w", key.Sequence, err)
	}
	return record, nil
}

// ListByWallet returns the wallet's records, newest sequence first.
func (s *OfferStore) ListByWallet(ctx context.Context, wallet, network string, opts domain.ListOpts) ([]*domain.OfferRecord, error) {
	query := `SELECT ` + offerSelectCols + ` FROM offers
		WHERE wallet = $1 AND network = $2
		ORDER BY sequence DESC`
	args := []any{wallet, network}

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", len(args)+1)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list offers: %w", err)
	}
	defer rows.Close()

	var records []*domain.OfferRecord
	for rows.Next() {
		record, err := scanOfferFromRow(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan offer: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// DeleteWallet removes every record for the wallet on the given network.
func (s *OfferStore) DeleteWallet(ctx context.Context, wallet, network string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM offers WHERE wallet = $1 AND network = $2`, wallet, network)
	if err != nil {
		return fmt.Errorf("postgres: delete wallet %s: %w", wallet, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.OfferStore = (*OfferStore)(nil)
