package mapper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aurelianware/payerlink/payerlink/models"
)

func TestIdentityPatientRoundTrip(t *testing.T) {
	id := models.DemographicIdentity{
		MemberID:     "MBR123",
		SubscriberID: "SUB456",
		GovernmentID: "123-45-6789",
		GivenName:    "Jane",
		FamilyName:   "Doe",
		BirthDate:    time.Date(1983, 5, 22, 0, 0, 0, 0, time.UTC),
		Sex:          "female",
		AddressLine:  "12 Elm St",
		City:         "Springfield",
		State:        "IL",
		PostalCode:   "62704",
		Phone:        "2175550142",
		Email:        "jane.doe@example.com",
	}

	got := IdentityFromPatient(patientFromIdentity(id))
	assert.Equal(t, id, got)
}

func TestIdentityFromPatient_Sparse(t *testing.T) {
	got := IdentityFromPatient(patientFromIdentity(models.DemographicIdentity{
		FamilyName: "Doe",
		Sex:        "unknown",
	}))
	assert.Equal(t, "Doe", got.FamilyName)
	assert.Equal(t, "unknown", got.Sex)
	assert.True(t, got.BirthDate.IsZero())
	assert.False(t, got.Matchable())
}

func TestIdentityFromPatient_Nil(t *testing.T) {
	assert.Equal(t, models.DemographicIdentity{}, IdentityFromPatient(nil))
}
