package consent

import (
	"context"
	"sync"
	"time"

	"github.com/pborman/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/aurelianware/payerlink/log"
	errs "github.com/aurelianware/payerlink/payerlink/errors"
	"github.com/aurelianware/payerlink/payerlink/models"
	"github.com/aurelianware/payerlink/payerlink/utils"
)

// Gate is the single authorization point for resource exchange. All
// mutations for one (member, counterparty) pair serialize on a per-pair
// lock so a grant and a revoke arriving together cannot interleave.
type Gate struct {
	store Store
	now   func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewGate(store Store) *Gate {
	return &Gate{
		store: store,
		now:   time.Now,
		locks: make(map[string]*sync.Mutex),
	}
}

func (g *Gate) pairLock(memberID, counterparty string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := pairKey(memberID, counterparty)
	l, ok := g.locks[key]
	if !ok {
		l = &sync.Mutex{}
		g.locks[key] = l
	}
	return l
}

// Grant records a new pending consent scoped to the given resource types.
// An empty scope is rejected; a grant with an existing record supersedes
// it. Changing an active consent's scope is revoke plus a new grant, so a
// grant never mutates the authorized set in place.
func (g *Gate) Grant(ctx context.Context, memberID, counterparty string, resourceTypes []string, effectiveAt time.Time, expiresAt *time.Time) (*models.ConsentRecord, error) {
	if len(resourceTypes) == 0 {
		return nil, &errs.ConsentError{Kind: errs.EmptyScope, MemberID: memberID, Counterparty: counterparty}
	}
	if expiresAt != nil && !expiresAt.After(effectiveAt) {
		return nil, errors.New("consent expiry must follow its effective time")
	}

	l := g.pairLock(memberID, counterparty)
	l.Lock()
	defer l.Unlock()

	now := g.now()
	record := &models.ConsentRecord{
		ID:            uuid.NewRandom().String(),
		MemberID:      memberID,
		Counterparty:  counterparty,
		ResourceTypes: append([]string(nil), resourceTypes...),
		Status:        models.ConsentPending,
		EffectiveAt:   effectiveAt,
		ExpiresAt:     expiresAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := g.store.Put(ctx, record); err != nil {
		return nil, errors.Wrap(err, "could not store consent record")
	}

	log.Consent.WithFields(logrus.Fields{
		"consentID":    record.ID,
		"counterparty": counterparty,
	}).Info("Consent granted")
	return record, nil
}

// Activate transitions a pending consent to active. Activating an already
// active consent is a no-op; a revoked or absent consent cannot activate.
func (g *Gate) Activate(ctx context.Context, memberID, counterparty string) error {
	l := g.pairLock(memberID, counterparty)
	l.Lock()
	defer l.Unlock()

	record, err := g.store.Get(ctx, memberID, counterparty)
	if err != nil {
		return errors.Wrap(err, "could not load consent record")
	}
	switch {
	case record == nil:
		return errors.New("no consent record to activate")
	case record.Status == models.ConsentActive:
		return nil
	case record.Status != models.ConsentPending:
		return errors.Errorf("cannot activate consent in status %s", record.Status)
	}

	record.Status = models.ConsentActive
	record.UpdatedAt = g.now()
	if err := g.store.Put(ctx, record); err != nil {
		return errors.Wrap(err, "could not store consent record")
	}
	log.Consent.WithField("consentID", record.ID).Info("Consent activated")
	return nil
}

// Revoke transitions the pair's consent to revoked. Revocation is
// idempotent: revoking an absent or already revoked consent succeeds
// without effect.
func (g *Gate) Revoke(ctx context.Context, memberID, counterparty string) error {
	l := g.pairLock(memberID, counterparty)
	l.Lock()
	defer l.Unlock()

	record, err := g.store.Get(ctx, memberID, counterparty)
	if err != nil {
		return errors.Wrap(err, "could not load consent record")
	}
	if record == nil || record.Status == models.ConsentRevoked {
		return nil
	}

	record.Status = models.ConsentRevoked
	record.UpdatedAt = g.now()
	if err := g.store.Put(ctx, record); err != nil {
		return errors.Wrap(err, "could not store consent record")
	}
	log.Consent.WithField("consentID", record.ID).Info("Consent revoked")
	return nil
}

// Current returns the pair's record with its status derived for the query
// instant: an active record past its expiry reads as inactive. The stored
// record is never rewritten by the passage of time.
func (g *Gate) Current(ctx context.Context, memberID, counterparty string) (*models.ConsentRecord, error) {
	record, err := g.store.Get(ctx, memberID, counterparty)
	if err != nil {
		return nil, errors.Wrap(err, "could not load consent record")
	}
	if record == nil {
		return nil, nil
	}
	if record.Status == models.ConsentActive && record.ExpiresAt != nil &&
		g.now().After(*record.ExpiresAt) {
		record.Status = models.ConsentInactive
	}
	return record, nil
}

// IsAuthorized reports whether exchanging the resource type with the
// counterparty is authorized for the member right now. The consent must be
// active, effective, unexpired, and scoped to the resource type. The
// expiration instant itself is still authorized; only strictly-after is
// not.
func (g *Gate) IsAuthorized(ctx context.Context, memberID, counterparty, resourceType string) (bool, error) {
	record, err := g.store.Get(ctx, memberID, counterparty)
	if err != nil {
		return false, errors.Wrap(err, "could not load consent record")
	}
	if record == nil || record.Status != models.ConsentActive {
		return false, nil
	}

	now := g.now()
	if now.Before(record.EffectiveAt) {
		return false, nil
	}
	if record.ExpiresAt != nil && now.After(*record.ExpiresAt) {
		return false, nil
	}
	return utils.ContainsString(record.ResourceTypes, resourceType), nil
}

// Purge removes consent records that were already expired or revoked at
// the cutoff. It backs the retention policy and is irreversible; live
// records are never touched.
func (g *Gate) Purge(ctx context.Context, before time.Time) (int, error) {
	removed, err := g.store.DeleteExpired(ctx, before)
	if err != nil {
		return 0, errors.Wrap(err, "could not purge consent records")
	}
	log.Consent.WithFields(logrus.Fields{
		"removed": removed,
		"before":  before,
	}).Info("Expired consent records purged")
	return removed, nil
}
