package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurelianware/payerlink/payerlink/models"
)

func date(value string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func fullIdentity() models.DemographicIdentity {
	return models.DemographicIdentity{
		GivenName:   "Jane",
		FamilyName:  "Doe",
		BirthDate:   date("1983-05-22"),
		Sex:         "female",
		AddressLine: "12 Elm St",
		City:        "Springfield",
		State:       "IL",
		PostalCode:  "62704",
		Phone:       "217-555-0142",
	}
}

func TestMatch_IdentifierAgreementIsAuthoritative(t *testing.T) {
	m := New(DefaultConfig())

	target := models.DemographicIdentity{MemberID: "MBR123", FamilyName: "Smith",
		GivenName: "John", BirthDate: date("1990-01-01"), Sex: "male"}
	candidates := []models.MatchCandidate{{
		ID: "rec-1",
		// Demographics disagree entirely; the shared member ID decides.
		Identity: models.DemographicIdentity{MemberID: "MBR123", FamilyName: "Doe",
			GivenName: "Jane", BirthDate: date("1983-05-22"), Sex: "female"},
	}}

	result, err := m.Match(target, candidates)
	require.NoError(t, err)
	assert.Equal(t, models.Matched, result.Decision)
	assert.Equal(t, "rec-1", result.CandidateID)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, []string{FieldMemberID}, result.MatchedOn)
}

func TestMatch_IdentifierMismatchScoresDemographics(t *testing.T) {
	m := New(DefaultConfig())

	// Differing member IDs make the identifier comparator contribute zero;
	// the fully agreeing demographics still reach the threshold.
	target := fullIdentity()
	target.MemberID = "MBR123"
	cand := fullIdentity()
	cand.MemberID = "MBR999"

	result, err := m.Match(target, []models.MatchCandidate{{ID: "rec-1", Identity: cand}})
	require.NoError(t, err)
	assert.Equal(t, models.Matched, result.Decision)
	assert.InDelta(t, 0.80, result.Confidence, 1e-9)
	assert.NotContains(t, result.MatchedOn, FieldMemberID)
}

func TestMatch_DemographicAgreement(t *testing.T) {
	m := New(DefaultConfig())

	result, err := m.Match(fullIdentity(), []models.MatchCandidate{{
		ID: "rec-1", Identity: fullIdentity()}})
	require.NoError(t, err)
	assert.Equal(t, models.Matched, result.Decision)
	assert.Equal(t, "rec-1", result.CandidateID)
	assert.InDelta(t, 0.80, result.Confidence, 1e-9)
	assert.ElementsMatch(t, []string{FieldName, FieldBirthDate, FieldSex,
		FieldAddress, FieldTelecom}, result.MatchedOn)
}

func TestMatch_NormalizedNames(t *testing.T) {
	m := New(DefaultConfig())

	target := fullIdentity()
	target.FamilyName = "MUÑOZ"
	target.GivenName = "  JOSÉ "
	cand := fullIdentity()
	cand.FamilyName = "Munoz"
	cand.GivenName = "Jose"

	result, err := m.Match(target, []models.MatchCandidate{{ID: "rec-1", Identity: cand}})
	require.NoError(t, err)
	assert.Equal(t, models.Matched, result.Decision)
	assert.Contains(t, result.MatchedOn, FieldName)
}

func TestMatch_TypoCredit(t *testing.T) {
	m := New(DefaultConfig())

	target := fullIdentity()
	cand := fullIdentity()
	cand.FamilyName = "Doee" // one edit

	result, err := m.Match(target, []models.MatchCandidate{{ID: "rec-1", Identity: cand}})
	require.NoError(t, err)
	// The near-miss name keeps partial credit but the total lands under
	// the threshold without an identifier to settle it.
	assert.Equal(t, models.NoMatch, result.Decision)
	assert.Greater(t, result.Confidence, 0.70)
	assert.Less(t, result.Confidence, m.cfg.MatchThreshold)

	cand.FamilyName = "Smith" // beyond the distance bound
	result, err = m.Match(target, []models.MatchCandidate{{ID: "rec-1", Identity: cand}})
	require.NoError(t, err)
	assert.InDelta(t, 0.675, result.Confidence, 1e-9)
}

func TestMatch_ZeroOverlapScoresZero(t *testing.T) {
	m := New(DefaultConfig())

	cand := models.DemographicIdentity{
		GivenName:  "Robert",
		FamilyName: "Zimmerman",
		BirthDate:  date("1941-05-24"),
		Sex:        "male",
		City:       "Minneapolis",
		PostalCode: "55401",
		Phone:      "612-555-0100",
	}

	result, err := m.Match(fullIdentity(), []models.MatchCandidate{{ID: "rec-1", Identity: cand}})
	require.NoError(t, err)
	assert.Equal(t, models.NoMatch, result.Decision)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Empty(t, result.MatchedOn)
}

func TestMatch_MissingFieldsContributeZero(t *testing.T) {
	m := New(DefaultConfig())

	// Names and birth date agree; the candidate carries nothing else.
	target := fullIdentity()
	cand := models.DemographicIdentity{GivenName: "Jane", FamilyName: "Doe",
		BirthDate: date("1983-05-22")}

	result, err := m.Match(target, []models.MatchCandidate{{ID: "rec-1", Identity: cand}})
	require.NoError(t, err)
	assert.Equal(t, models.NoMatch, result.Decision)
	assert.InDelta(t, 0.50, result.Confidence, 1e-9)
	assert.Empty(t, result.CandidateID)
}

func TestMatch_TieBreaksToEarliestRecord(t *testing.T) {
	m := New(DefaultConfig())

	result, err := m.Match(fullIdentity(), []models.MatchCandidate{
		{ID: "rec-new", Identity: fullIdentity(), CreatedAt: date("2025-06-01")},
		{ID: "rec-old", Identity: fullIdentity(), CreatedAt: date("2021-02-14")},
	})
	require.NoError(t, err)
	assert.Equal(t, models.Matched, result.Decision)
	assert.Equal(t, "rec-old", result.CandidateID)
}

func TestMatch_UnmatchableTarget(t *testing.T) {
	m := New(DefaultConfig())

	_, err := m.Match(models.DemographicIdentity{GivenName: "Jane"}, nil)
	require.Error(t, err)
}

func TestMatch_NoCandidates(t *testing.T) {
	m := New(DefaultConfig())

	result, err := m.Match(fullIdentity(), nil)
	require.NoError(t, err)
	assert.Equal(t, models.NoMatch, result.Decision)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestEditDistanceBound(t *testing.T) {
	assert.Equal(t, 0, editDistance("doe", "doe", 2))
	assert.Equal(t, 1, editDistance("doe", "does", 2))
	assert.Equal(t, 2, editDistance("doe", "day", 2))
	assert.Equal(t, 3, editDistance("doe", "smith", 2)) // reported as max+1
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()
	assert.Equal(t, DefaultConfig(), cfg)
}
