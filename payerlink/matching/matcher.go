package matching

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/aurelianware/payerlink/log"
	"github.com/aurelianware/payerlink/payerlink/models"
)

// Matched-on comparator labels reported in results and audit logs.
const (
	FieldMemberID     = "memberId"
	FieldGovernmentID = "governmentId"
	FieldName         = "name"
	FieldBirthDate    = "birthDate"
	FieldSex          = "sex"
	FieldAddress      = "address"
	FieldTelecom      = "telecom"
)

// Matcher scores one target identity against candidate records. It holds no
// mutable state and is safe for concurrent use.
type Matcher struct {
	cfg Config
}

func New(cfg Config) *Matcher {
	return &Matcher{cfg: cfg}
}

// Match scores the target against every candidate and returns the best
// scoring candidate's result. The decision is Matched only when the best
// confidence reaches the configured threshold; exact score ties resolve to
// the earliest created candidate. Targets that are not matchable are an
// error, never a silent no-match; an empty candidate pool is a no-match
// with confidence zero, never an error.
func (m *Matcher) Match(target models.DemographicIdentity, candidates []models.MatchCandidate) (models.MatchResult, error) {
	if !target.Matchable() {
		return models.MatchResult{}, errors.New("identity is not matchable: no strong identifier and incomplete demographics")
	}

	var best *models.MatchCandidate
	var bestScore float64
	var bestFields []string

	for i := range candidates {
		cand := &candidates[i]
		score, fields := m.score(target, cand.Identity)
		if best == nil || score > bestScore ||
			(score == bestScore && cand.CreatedAt.Before(best.CreatedAt)) {
			best, bestScore, bestFields = cand, score, fields
		}
	}

	result := models.MatchResult{Confidence: bestScore, Decision: models.NoMatch}
	if best != nil && bestScore >= m.cfg.MatchThreshold {
		result.CandidateID = best.ID
		result.MatchedOn = bestFields
		result.Decision = models.Matched
	}

	log.Matching.WithFields(logrus.Fields{
		"decision":   result.Decision,
		"confidence": result.Confidence,
		"candidates": len(candidates),
	}).Debug("Identity match evaluated")
	return result, nil
}

// score computes the confidence for one candidate: the weighted sum of the
// five comparators, each normalized to [0,1]. A perfect identifier
// comparator short-circuits to 1.0 and skips demographic scoring entirely;
// a comparator either side cannot answer contributes zero.
func (m *Matcher) score(target, cand models.DemographicIdentity) (float64, []string) {
	if target.MemberID != "" && target.MemberID == cand.MemberID {
		return 1.0, []string{FieldMemberID}
	}
	if target.GovernmentID != "" && target.GovernmentID == cand.GovernmentID {
		return 1.0, []string{FieldGovernmentID}
	}

	w := m.cfg.Weights
	var score float64
	var fields []string

	if credit := m.nameCredit(target, cand); credit > 0 {
		score += w.Name * credit
		fields = append(fields, FieldName)
	}

	if !target.BirthDate.IsZero() && !cand.BirthDate.IsZero() &&
		target.BirthDate.Equal(cand.BirthDate) {
		score += w.BirthDate
		fields = append(fields, FieldBirthDate)
	}

	if target.Sex != "" && target.Sex != "unknown" && target.Sex == cand.Sex {
		score += w.Sex
		fields = append(fields, FieldSex)
	}

	if credit := addressCredit(target, cand); credit > 0 {
		score += w.Address * credit
		fields = append(fields, FieldAddress)
	}

	if telecomEqual(target, cand) {
		score += w.Telecom
		fields = append(fields, FieldTelecom)
	}

	return score, fields
}

// nameCredit grades the name comparator over the family and given parts:
// each part earns 1.0 for normalized equality, a partial credit for edit
// distances within the configured bound, zero beyond it or when either side
// is absent. The two parts weigh equally.
func (m *Matcher) nameCredit(target, cand models.DemographicIdentity) float64 {
	return (m.partCredit(target.FamilyName, cand.FamilyName) +
		m.partCredit(target.GivenName, cand.GivenName)) / 2
}

func (m *Matcher) partCredit(a, b string) float64 {
	na, nb := normalize(a), normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1.0
	}
	dist := editDistance(na, nb, m.cfg.NameDistanceMax)
	if dist > m.cfg.NameDistanceMax {
		return 0
	}
	return 1.0 - float64(dist)/float64(m.cfg.NameDistanceMax+1)
}

// addressCredit splits the address comparator between the postal code and
// the city, so a member who moved within a zip code still earns partial
// credit.
func addressCredit(target, cand models.DemographicIdentity) float64 {
	var credit float64
	tp, cp := normalizeDigits(target.PostalCode), normalizeDigits(cand.PostalCode)
	if len(tp) >= 5 && len(cp) >= 5 && tp[:5] == cp[:5] {
		credit += 0.5
	}
	tc, cc := normalize(target.City), normalize(cand.City)
	if tc != "" && tc == cc {
		credit += 0.5
	}
	return credit
}

func telecomEqual(target, cand models.DemographicIdentity) bool {
	tp, cp := normalizeDigits(target.Phone), normalizeDigits(cand.Phone)
	if tp != "" && tp == cp {
		return true
	}
	te, ce := normalize(target.Email), normalize(cand.Email)
	return te != "" && te == ce
}
