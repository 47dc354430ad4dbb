package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMatchable(t *testing.T) {
	dob := time.Date(1983, 5, 22, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		id   DemographicIdentity
		want bool
	}{
		{"member ID alone", DemographicIdentity{MemberID: "MBR1"}, true},
		{"government ID alone", DemographicIdentity{GovernmentID: "123-45-6789"}, true},
		{"full demographic triple", DemographicIdentity{GivenName: "Jane",
			FamilyName: "Doe", BirthDate: dob, Sex: "female"}, true},
		{"name without birth date", DemographicIdentity{GivenName: "Jane",
			FamilyName: "Doe", Sex: "female"}, false},
		{"subscriber ID is not strong", DemographicIdentity{SubscriberID: "SUB1"}, false},
		{"empty", DemographicIdentity{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.id.Matchable())
		})
	}
}

func TestManifestEntry(t *testing.T) {
	m := BatchManifest{Entries: []ManifestEntry{
		{ResourceType: "Patient", RecordCount: 2},
		{ResourceType: "Claim", RecordCount: 5},
	}}

	entry := m.Entry("Claim")
	assert.NotNil(t, entry)
	assert.Equal(t, 5, entry.RecordCount)
	assert.Nil(t, m.Entry("Encounter"))

	// Entry returns a pointer into the manifest, not a copy.
	entry.ConsentSkipped++
	assert.Equal(t, 1, m.Entries[1].ConsentSkipped)
}

func TestImportResultOutcome(t *testing.T) {
	var r ImportResult

	o := r.Outcome("Patient")
	o.Count++
	assert.Equal(t, 1, r.Outcome("Patient").Count)
	assert.Same(t, o, r.Outcome("Patient"))
}

func TestTimelineDecided(t *testing.T) {
	tl := AuthorizationTimeline{RequestID: "req-1"}
	assert.False(t, tl.Decided())

	decidedAt := time.Now()
	tl.DecidedAt = &decidedAt
	assert.True(t, tl.Decided())
}
