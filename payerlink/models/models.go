// Package models holds the domain models shared by the mapper, matcher,
// consent gate, exchange coordinator, and timeline tracker.
package models

import (
	"time"

	"github.com/aurelianware/payerlink/payerlink/errors"
)

// DemographicIdentity is the member identity view used for matching. It is
// derived from legacy transaction fields or a clinical resource, immutable
// once constructed, and always an attribute of some record rather than a
// persisted entity of its own.
type DemographicIdentity struct {
	MemberID     string
	SubscriberID string
	GovernmentID string

	GivenName  string
	FamilyName string
	BirthDate  time.Time // zero when unknown
	Sex        string    // male | female | unknown

	AddressLine string
	City        string
	State       string
	PostalCode  string
	Phone       string
	Email       string
}

// HasStrongIdentifier reports whether the identity carries a member ID or
// government ID.
func (d DemographicIdentity) HasStrongIdentifier() bool {
	return d.MemberID != "" || d.GovernmentID != ""
}

// Matchable reports whether matching may be attempted: a strong identifier,
// or the full demographic triple of name, birth date, and sex.
func (d DemographicIdentity) Matchable() bool {
	if d.HasStrongIdentifier() {
		return true
	}
	return d.GivenName != "" && d.FamilyName != "" && !d.BirthDate.IsZero() && d.Sex != ""
}

// MatchCandidate is one existing record offered to the matcher. CreatedAt
// breaks exact score ties deterministically (earliest record wins).
type MatchCandidate struct {
	ID        string
	Identity  DemographicIdentity
	CreatedAt time.Time
}

// MatchDecision is the binary outcome of a matching call.
type MatchDecision string

const (
	Matched MatchDecision = "matched"
	NoMatch MatchDecision = "no-match"
)

// MatchResult is the ephemeral outcome of one matching call.
type MatchResult struct {
	CandidateID string
	Confidence  float64
	MatchedOn   []string
	Decision    MatchDecision
}

// ConsentStatus is the lifecycle state of a consent record. Inactive is
// derived from expiry at query time, never written by a background job.
type ConsentStatus string

const (
	ConsentPending  ConsentStatus = "pending"
	ConsentActive   ConsentStatus = "active"
	ConsentInactive ConsentStatus = "inactive"
	ConsentRevoked  ConsentStatus = "revoked"
)

// ConsentRecord scopes exchange of a resource-type set between one member
// and one counterparty. Mutations are status transitions only; changing the
// authorized set means revoke plus a new grant.
type ConsentRecord struct {
	ID            string
	MemberID      string
	Counterparty  string
	ResourceTypes []string
	Status        ConsentStatus
	EffectiveAt   time.Time
	ExpiresAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DateRange bounds a backend resource query. A zero boundary is open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ManifestEntry is the per-resource-type accounting in a batch manifest.
// ConsentSkipped counts (member, resourceType) pairs omitted for lack of
// consent; skips are auditable, not silent.
type ManifestEntry struct {
	ResourceType   string `json:"resourceType"`
	RecordCount    int    `json:"recordCount"`
	ConsentSkipped int    `json:"consentSkipped"`
}

// BatchManifest describes an export batch: what it holds and for whom.
type BatchManifest struct {
	BatchID      string          `json:"batchId"`
	Counterparty string          `json:"counterparty"`
	GeneratedAt  time.Time       `json:"generatedAt"`
	Entries      []ManifestEntry `json:"entries"`
}

// Entry returns the manifest entry for a resource type.
func (m *BatchManifest) Entry(resourceType string) *ManifestEntry {
	for i := range m.Entries {
		if m.Entries[i].ResourceType == resourceType {
			return &m.Entries[i]
		}
	}
	return nil
}

// ExportBatch is the immutable result of one export request. StreamURLs
// locate the per-type record streams in the object store; downstream import
// references them, never copies.
type ExportBatch struct {
	ID           string            `json:"id"`
	Counterparty string            `json:"counterparty"`
	GeneratedAt  time.Time         `json:"generatedAt"`
	Manifest     BatchManifest     `json:"manifest"`
	StreamURLs   map[string]string `json:"streamUrls"`
}

// TypeOutcome aggregates per-record outcomes for one resource type during
// import. Errors are collected, not thrown; partial success is reported.
type TypeOutcome struct {
	Count             int
	DuplicatesSkipped int
	Errors            []*errors.ValidationError
}

// ImportResult is the per-type summary of one import operation. Status
// carries the lifecycle value from constants (In-Progress while streams
// are being consumed, then Completed or Failed).
type ImportResult struct {
	BatchID string
	Status  string
	PerType map[string]*TypeOutcome
}

// Outcome returns the (lazily created) outcome bucket for a resource type.
func (r *ImportResult) Outcome(resourceType string) *TypeOutcome {
	if r.PerType == nil {
		r.PerType = make(map[string]*TypeOutcome)
	}
	o, ok := r.PerType[resourceType]
	if !ok {
		o = &TypeOutcome{}
		r.PerType[resourceType] = o
	}
	return o
}

// TimelinePriority classifies an authorization request's urgency.
type TimelinePriority string

const (
	PriorityUrgent   TimelinePriority = "urgent"
	PriorityStandard TimelinePriority = "standard"
)

// AuthorizationTimeline tracks the decision service level for one
// authorization request. It is created at submission and mutated exactly
// once, on decision; a recorded decision is a compliance artifact.
type AuthorizationTimeline struct {
	RequestID     string           `json:"requestId"`
	Priority      TimelinePriority `json:"priority"`
	SubmittedAt   time.Time        `json:"submittedAt"`
	DecisionDueBy time.Time        `json:"decisionDueBy"`
	DecidedAt     *time.Time       `json:"decidedAt,omitempty"`
	Compliant     *bool            `json:"compliant,omitempty"`
}

// Decided reports whether the timeline reached its terminal state.
func (t *AuthorizationTimeline) Decided() bool {
	return t.DecidedAt != nil
}
