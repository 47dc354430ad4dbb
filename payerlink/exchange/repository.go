// Package exchange coordinates bulk resource movement with counterparty
// payers: consent-gated batch export to the object store, and streaming
// import with identity matching and duplicate suppression.
package exchange

import (
	"context"
	"sync"
	"time"

	"github.com/aurelianware/payerlink/payerlink/models"
)

// Repository is the local record store the import side writes into. The
// natural key for non-demographic resources is the pair of resource type
// and business identifier; HasResource answers duplicate checks against it.
type Repository interface {
	// PatientCandidates returns the existing patient records as match
	// candidates.
	PatientCandidates(ctx context.Context) ([]models.MatchCandidate, error)
	// HasResource reports whether a resource with the natural key exists.
	HasResource(ctx context.Context, resourceType, naturalKey string) (bool, error)
	// SaveResource stores a new resource under its natural key.
	SaveResource(ctx context.Context, resourceType, naturalKey string, identity models.DemographicIdentity, data []byte) error
}

type storedResource struct {
	identity  models.DemographicIdentity
	data      []byte
	createdAt time.Time
}

// MemoryRepository is the in-process Repository used by tests and
// single-node deployments.
type MemoryRepository struct {
	mu        sync.RWMutex
	resources map[string]map[string]*storedResource // resourceType -> naturalKey
	now       func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		resources: make(map[string]map[string]*storedResource),
		now:       time.Now,
	}
}

func (r *MemoryRepository) PatientCandidates(_ context.Context) ([]models.MatchCandidate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.MatchCandidate
	for key, stored := range r.resources["Patient"] {
		out = append(out, models.MatchCandidate{
			ID:        key,
			Identity:  stored.identity,
			CreatedAt: stored.createdAt,
		})
	}
	return out, nil
}

func (r *MemoryRepository) HasResource(_ context.Context, resourceType, naturalKey string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.resources[resourceType][naturalKey]
	return ok, nil
}

func (r *MemoryRepository) SaveResource(_ context.Context, resourceType, naturalKey string, identity models.DemographicIdentity, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byKey, ok := r.resources[resourceType]
	if !ok {
		byKey = make(map[string]*storedResource)
		r.resources[resourceType] = byKey
	}
	byKey[naturalKey] = &storedResource{
		identity:  identity,
		data:      append([]byte(nil), data...),
		createdAt: r.now(),
	}
	return nil
}

// Count returns how many resources of a type the repository holds.
func (r *MemoryRepository) Count(resourceType string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.resources[resourceType])
}
