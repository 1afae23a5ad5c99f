// Package memory implements domain.OfferStore in process memory. It backs
// tests and the storeless run mode; records do not survive a restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sablewallet/sable/internal/domain"
)

// OfferStore is a mutex-guarded map keyed the same way as the Postgres store.
type OfferStore struct {
	mu      sync.RWMutex
	records map[domain.OfferKey]*domain.OfferRecord
}

// NewOfferStore creates an empty OfferStore.
func NewOfferStore() *OfferStore {
	return &OfferStore{records: make(map[domain.OfferKey]*domain.OfferRecord)}
}

// GetOffer returns a deep copy of the record, or domain.ErrNotFound.
func (s *OfferStore) GetOffer(_ context.Context, key domain.OfferKey) (*domain.OfferRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return record.Clone(), nil
}

// PutOffer stores a deep copy of the record.
func (s *OfferStore) PutOffer(_ context.Context, record *domain.OfferRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := record.Clone()
	stored.UpdatedAt = time.Now().UTC()
	s.records[record.Key] = stored
	return nil
}

// ListByWallet returns the wallet's records, newest sequence first.
func (s *OfferStore) ListByWallet(_ context.Context, wallet, network string, opts domain.ListOpts) ([]*domain.OfferRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*domain.OfferRecord
	for key, record := range s.records {
		if key.Wallet == wallet && key.Network == network {
			records = append(records, record.Clone())
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Key.Sequence > records[j].Key.Sequence
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(records) {
			return nil, nil
		}
		records = records[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(records) {
		records = records[:opts.Limit]
	}
	return records, nil
}

// DeleteWallet removes every record for the wallet on the given network.
func (s *OfferStore) DeleteWallet(_ context.Context, wallet, network string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.records {
		if key.Wallet == wallet && key.Network == network {
			delete(s.records, key)
		}
	}
	return nil
}

// Compile-time interface check.
var _ domain.OfferStore = (*OfferStore)(nil)
