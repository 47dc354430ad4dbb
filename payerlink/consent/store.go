// Package consent authorizes resource exchange between a member and a
// counterparty. Consent never expires silently: expiry is recomputed from
// the record at every authorization query, and skips are reported by the
// callers that observe them.
package consent

import (
	"context"
	"sync"
	"time"

	"github.com/aurelianware/payerlink/payerlink/models"
)

// Store persists one current consent record per (member, counterparty)
// pair. A newer grant supersedes the pair's previous record.
type Store interface {
	// Get returns the pair's current record, or nil when none exists.
	Get(ctx context.Context, memberID, counterparty string) (*models.ConsentRecord, error)
	// Put stores the record as the pair's current record.
	Put(ctx context.Context, record *models.ConsentRecord) error
	// DeleteExpired removes records that were already dead at the cutoff:
	// expired before it, or revoked with no change since. Returns how many
	// were removed.
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}

func pairKey(memberID, counterparty string) string {
	return memberID + "|" + counterparty
}

// MemoryStore is the in-process Store used by tests and single-node
// deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.ConsentRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*models.ConsentRecord)}
}

func (s *MemoryStore) Get(_ context.Context, memberID, counterparty string) (*models.ConsentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[pairKey(memberID, counterparty)]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (s *MemoryStore) Put(_ context.Context, record *models.ConsentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *record
	s.records[pairKey(record.MemberID, record.Counterparty)] = &copied
	return nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, rec := range s.records {
		expired := rec.ExpiresAt != nil && rec.ExpiresAt.Before(before)
		revoked := rec.Status == models.ConsentRevoked && rec.UpdatedAt.Before(before)
		if expired || revoked {
			delete(s.records, key)
			removed++
		}
	}
	return removed, nil
}
