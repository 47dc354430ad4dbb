package fhir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalResource(t *testing.T) {
	cases := []struct {
		name string
		data string
		want string
	}{
		{"patient", `{"resourceType":"Patient","id":"MBR1"}`, "Patient"},
		{"coverage", `{"resourceType":"Coverage","id":"COV1"}`, "Coverage"},
		{"claim", `{"resourceType":"Claim","id":"CLM1","use":"preauthorization"}`, "Claim"},
		{"claim response", `{"resourceType":"ClaimResponse","id":"RSP1"}`, "ClaimResponse"},
		{"encounter", `{"resourceType":"Encounter","id":"ENC1"}`, "Encounter"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := UnmarshalResource([]byte(tc.data))
			require.NoError(t, err)
			assert.Equal(t, tc.want, r.GetResourceType())
			assert.NotEmpty(t, r.GetID())
		})
	}
}

func TestUnmarshalResource_DecodesConcreteFields(t *testing.T) {
	r, err := UnmarshalResource([]byte(`{"resourceType":"Claim","id":"CLM1","use":"preauthorization","priority":{"coding":[{"code":"stat"}]}}`))
	require.NoError(t, err)

	claim, ok := r.(*Claim)
	require.True(t, ok)
	assert.Equal(t, "preauthorization", claim.Use)
	require.NotNil(t, claim.Priority)
	assert.Equal(t, "stat", claim.Priority.Coding[0].Code)
}

func TestUnmarshalResource_Errors(t *testing.T) {
	_, err := UnmarshalResource([]byte(`{"id":"no-type"}`))
	require.EqualError(t, err, "record is missing resourceType")

	_, err = UnmarshalResource([]byte(`{"resourceType":"Medication","id":"MED1"}`))
	require.EqualError(t, err, `unsupported resourceType "Medication"`)

	_, err = UnmarshalResource([]byte(`this is not json`))
	require.Error(t, err)
}
