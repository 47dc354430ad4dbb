package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurelianware/payerlink/payerlink/constants"
	"github.com/aurelianware/payerlink/payerlink/edi"
	errs "github.com/aurelianware/payerlink/payerlink/errors"
	"github.com/aurelianware/payerlink/payerlink/fhir"
)

func authorizationRequestTransaction() *edi.Transaction {
	tx := edi.NewTransaction(edi.AuthorizationRequest, "TRACE-001")
	tx.Append(
		edi.NewSegment("BHT", "0007", "13", "TRACE-001", "20260110"),
		edi.NewSegment("TRN", "1", "TRACE-001"),
		edi.NewSegment("NM1", "IL", "1", "DOE", "JANE", "", "", "", "MI", "MBR123"),
		edi.NewSegment("REF", "SY", "987654321"),
		edi.NewSegment("DMG", "D8", "19830522", "F"),
		edi.NewSegment("N3", "12 ELM ST"),
		edi.NewSegment("N4", "SPRINGFIELD", "IL", "62704"),
		edi.NewSegment("PER", "IC", "", "TE", "2175550142"),
		edi.NewSegment("NM1", "1P", "2", "SPRINGFIELD ORTHO GROUP"),
		edi.NewSegment("UM", "HS", "I", "48", "", "", "U"),
		edi.NewSegment("DTP", "472", "RD8", "20260201-20260205"),
	)
	return tx
}

func authorizationResponseTransaction() *edi.Transaction {
	tx := edi.NewTransaction(edi.AuthorizationResponse, "TRACE-001")
	tx.Append(
		edi.NewSegment("BHT", "0007", "11", "TRACE-001", "20260112"),
		edi.NewSegment("TRN", "1", "TRACE-001"),
		edi.NewSegment("NM1", "IL", "1", "DOE", "JANE", "", "", "", "MI", "MBR123"),
		edi.NewSegment("REF", "SY", "987654321"),
		edi.NewSegment("DMG", "D8", "19830522", "F"),
		edi.NewSegment("N3", "12 ELM ST"),
		edi.NewSegment("N4", "SPRINGFIELD", "IL", "62704"),
		edi.NewSegment("PER", "IC", "", "TE", "2175550142"),
		edi.NewSegment("HCR", "A2", "CERT-9001"),
		edi.NewSegment("DTP", "036", "RD8", "20260201-20260301"),
	)
	return tx
}

func TestToClinicalResource_AuthorizationRequest(t *testing.T) {
	result, err := ToClinicalResource(authorizationRequestTransaction())
	require.NoError(t, err)

	claim, ok := result.Primary.(*fhir.Claim)
	require.True(t, ok)
	assert.Equal(t, "TRACE-001", claim.ID)
	assert.Equal(t, "preauthorization", claim.Use)
	assert.Equal(t, "2026-01-10", claim.Created)
	assert.Equal(t, "TRACE-001", claim.Identifier[0].Value)
	assert.Equal(t, constants.SystemTraceNumber, claim.Identifier[0].System)

	require.NotNil(t, claim.Priority)
	assert.Equal(t, "urgent", claim.Priority.Coding[0].Code)

	require.Len(t, claim.Item, 1)
	require.NotNil(t, claim.Item[0].Category)
	assert.Equal(t, "48", claim.Item[0].Category.Coding[0].Code)
	assert.Equal(t, "Hospital - Inpatient", claim.Item[0].Category.Coding[0].Display)
	require.NotNil(t, claim.Item[0].ServicedPeriod)
	assert.Equal(t, "2026-02-01", claim.Item[0].ServicedPeriod.Start)
	assert.Equal(t, "2026-02-05", claim.Item[0].ServicedPeriod.End)

	require.NotNil(t, claim.Provider)
	assert.Equal(t, "SPRINGFIELD ORTHO GROUP", claim.Provider.Display)

	assert.Equal(t, "HS", extensionCode(claim.Extension, constants.SystemRequestCategory))
	assert.Equal(t, "I", extensionCode(claim.Extension, constants.SystemCertificationType))

	require.Len(t, result.Related, 1)
	patient, ok := result.Related[0].(*fhir.Patient)
	require.True(t, ok)
	assert.Equal(t, "MBR123", patient.ID)
	assert.Equal(t, "DOE", patient.Name[0].Family)
	assert.Equal(t, []string{"JANE"}, patient.Name[0].Given)
	assert.Equal(t, "female", patient.Gender)
	assert.Equal(t, "1983-05-22", patient.BirthDate)
	assert.Equal(t, "Patient/MBR123", claim.Patient.Reference)
}

func TestToClinicalResource_AuthorizationResponse(t *testing.T) {
	result, err := ToClinicalResource(authorizationResponseTransaction())
	require.NoError(t, err)

	resp, ok := result.Primary.(*fhir.ClaimResponse)
	require.True(t, ok)
	assert.Equal(t, "CERT-9001", resp.ID)
	assert.Equal(t, "CERT-9001", resp.PreAuthRef)
	assert.Equal(t, "complete", resp.Outcome)
	assert.Equal(t, "Claim/TRACE-001", resp.Request.Reference)

	require.NotNil(t, resp.Decision)
	assert.Equal(t, "modified", resp.Decision.Coding[0].Code)
	assert.Equal(t, "Certified in part", resp.Disposition)
	assert.Equal(t, "A2", originalCode(resp.Decision.Extension))

	require.NotNil(t, resp.PreAuthPeriod)
	assert.Equal(t, "2026-02-01", resp.PreAuthPeriod.Start)
	assert.Equal(t, "2026-03-01", resp.PreAuthPeriod.End)
}

// Decisions that certify in part and decisions the counterparty modified
// land on the same canonical status; the original code survives only in the
// preserved extension.
func TestToClinicalResource_DecisionCollapse(t *testing.T) {
	for _, code := range []string{"A2", "A6"} {
		tx := authorizationResponseTransaction()
		tx.Segments[8] = edi.NewSegment("HCR", code, "CERT-9001")

		result, err := ToClinicalResource(tx)
		require.NoError(t, err)

		resp := result.Primary.(*fhir.ClaimResponse)
		assert.Equal(t, "modified", resp.Decision.Coding[0].Code, "code %s", code)
		assert.Equal(t, code, originalCode(resp.Decision.Extension))
	}
}

func TestAuthorizationResponseRoundTrip(t *testing.T) {
	original := authorizationResponseTransaction()
	result, err := ToClinicalResource(original)
	require.NoError(t, err)

	encoded, err := ToLegacyTransaction(result.Primary, edi.AuthorizationResponse, result.Related...)
	require.NoError(t, err)
	assert.Equal(t, edi.AuthorizationResponse, encoded.Kind)

	for _, id := range []string{"TRN", "NM1", "REF", "DMG", "N3", "N4", "PER", "HCR", "DTP"} {
		want, ok := original.First(id)
		require.True(t, ok, "segment %s", id)
		got, ok := encoded.First(id)
		require.True(t, ok, "segment %s", id)
		assert.Equal(t, want, got, "segment %s", id)
	}

	bht, ok := encoded.First("BHT")
	require.True(t, ok)
	assert.Equal(t, "11", bht.Element(2))
	assert.Equal(t, "TRACE-001", bht.Element(3))
	assert.Equal(t, "20260112", bht.Element(4))
}

func TestAuthorizationRequestRoundTrip(t *testing.T) {
	original := authorizationRequestTransaction()
	result, err := ToClinicalResource(original)
	require.NoError(t, err)

	encoded, err := ToLegacyTransaction(result.Primary, edi.AuthorizationRequest, result.Related...)
	require.NoError(t, err)

	um, ok := encoded.First("UM")
	require.True(t, ok)
	assert.Equal(t, "HS", um.Element(1))
	assert.Equal(t, "I", um.Element(2))
	assert.Equal(t, "48", um.Element(3))
	assert.Equal(t, "U", um.Element(6))

	dtp, ok := encoded.Entity("DTP", "472")
	require.True(t, ok)
	assert.Equal(t, "RD8", dtp.Element(2))
	assert.Equal(t, "20260201-20260205", dtp.Element(3))

	member, ok := encoded.Entity("NM1", "IL")
	require.True(t, ok)
	assert.Equal(t, "MBR123", member.Element(9))
}

// The legacy "U" sex code and the absent element both collapse to unknown,
// and the reverse direction always emits the absent element for unknown.
func TestSexCollapse(t *testing.T) {
	for name, dmg := range map[string]edi.Segment{
		"explicit U": edi.NewSegment("DMG", "D8", "19830522", "U"),
		"absent":     edi.NewSegment("DMG", "D8", "19830522"),
	} {
		t.Run(name, func(t *testing.T) {
			tx := authorizationResponseTransaction()
			tx.Segments[4] = dmg

			result, err := ToClinicalResource(tx)
			require.NoError(t, err)
			patient := result.Related[0].(*fhir.Patient)
			assert.Equal(t, "unknown", patient.Gender)

			encoded, err := ToLegacyTransaction(result.Primary, edi.AuthorizationResponse, result.Related...)
			require.NoError(t, err)
			out, ok := encoded.First("DMG")
			require.True(t, ok)
			assert.Equal(t, []string{"D8", "19830522"}, out.Elements)
		})
	}
}

// Unknown service type codes pass through as the other/unspecified concept
// with the original code preserved, and reverse to exactly that code.
func TestUnknownServiceTypePassThrough(t *testing.T) {
	concept := ServiceTypeConcept("ZZ")
	assert.Equal(t, "other-unspecified", concept.Coding[0].Code)
	assert.Equal(t, "ZZ", originalCode(concept.Extension))
	assert.Equal(t, "ZZ", ServiceTypeCode(&concept))
}

func TestToClinicalResource_EligibilityInquiry(t *testing.T) {
	tx := edi.NewTransaction(edi.EligibilityInquiry, "TRACE-270")
	tx.Append(
		edi.NewSegment("BHT", "0007", "13", "TRACE-270"),
		edi.NewSegment("TRN", "1", "TRACE-270"),
		edi.NewSegment("NM1", "PR", "2", "ACME HEALTH PLAN", "", "", "", "", "PI", "PAYER01"),
		edi.NewSegment("NM1", "IL", "1", "DOE", "JOHN", "", "", "", "MI", "MBR456"),
		edi.NewSegment("REF", "0F", "SUB-77"),
		edi.NewSegment("DMG", "D8", "19750101", "M"),
		edi.NewSegment("EQ", "30"),
	)

	result, err := ToClinicalResource(tx)
	require.NoError(t, err)

	patient, ok := result.Primary.(*fhir.Patient)
	require.True(t, ok)
	assert.Equal(t, "MBR456", patient.ID)
	assert.Equal(t, "male", patient.Gender)

	require.Len(t, result.Related, 1)
	coverage, ok := result.Related[0].(*fhir.Coverage)
	require.True(t, ok)
	assert.Equal(t, "SUB-77", coverage.SubscriberID)
	assert.Equal(t, "Patient/MBR456", coverage.Beneficiary.Reference)
	require.Len(t, coverage.Payor, 1)
	assert.Equal(t, "ACME HEALTH PLAN", coverage.Payor[0].Display)
	require.NotNil(t, coverage.Type)
	assert.Equal(t, "other-unspecified", coverage.Type.Coding[0].Code)
	assert.Equal(t, "30", originalCode(coverage.Type.Extension))
}

func TestToClinicalResource_ClaimSubmission(t *testing.T) {
	tx := edi.NewTransaction(edi.ClaimSubmission, "TRACE-837")
	tx.Append(
		edi.NewSegment("BHT", "0007", "13", "TRACE-837", "20260115"),
		edi.NewSegment("NM1", "IL", "1", "DOE", "JANE", "", "", "", "MI", "MBR123"),
		edi.NewSegment("NM1", "85", "2", "SPRINGFIELD CLINIC"),
		edi.NewSegment("CLM", "CLM-42", "1250.00"),
		edi.NewSegment("DTP", "472", "D8", "20260110"),
		edi.NewSegment("SV1", "99213", "250.00", "UN", "1"),
		edi.NewSegment("SV1", "73721", "1000.00", "UN", "1"),
	)

	result, err := ToClinicalResource(tx)
	require.NoError(t, err)

	claim, ok := result.Primary.(*fhir.Claim)
	require.True(t, ok)
	assert.Equal(t, "CLM-42", claim.ID)
	assert.Equal(t, "claim", claim.Use)
	require.NotNil(t, claim.Total)
	assert.Equal(t, 1250.00, claim.Total.Value)
	assert.Equal(t, "SPRINGFIELD CLINIC", claim.Provider.Display)

	require.Len(t, claim.Item, 2)
	assert.Equal(t, "99213", claim.Item[0].ProductOrService.Coding[0].Code)
	assert.Equal(t, 250.00, claim.Item[0].UnitPrice.Value)
	assert.Equal(t, "2026-01-10", claim.Item[0].ServicedDate)
	assert.Equal(t, 2, claim.Item[1].Sequence)
}

func TestToClinicalResource_Errors(t *testing.T) {
	t.Run("missing member entity", func(t *testing.T) {
		tx := edi.NewTransaction(edi.AuthorizationRequest, "T1")
		tx.Append(
			edi.NewSegment("BHT", "0007", "13", "T1"),
			edi.NewSegment("TRN", "1", "T1"),
			edi.NewSegment("UM", "HS", "I", "1"),
		)
		_, err := ToClinicalResource(tx)
		var mapErr *errs.MappingError
		require.ErrorAs(t, err, &mapErr)
		assert.Equal(t, errs.MissingField, mapErr.Kind)
		assert.Equal(t, "NM1*IL", mapErr.Field)
	})

	t.Run("malformed birth date", func(t *testing.T) {
		tx := authorizationRequestTransaction()
		tx.Segments[4] = edi.NewSegment("DMG", "D8", "1983-05-22", "F")
		_, err := ToClinicalResource(tx)
		var mapErr *errs.MappingError
		require.ErrorAs(t, err, &mapErr)
		assert.Equal(t, errs.InvalidFormat, mapErr.Kind)
		assert.Equal(t, "DMG02", mapErr.Field)
	})

	t.Run("missing trace", func(t *testing.T) {
		tx := edi.NewTransaction(edi.AuthorizationRequest, "")
		tx.Append(edi.NewSegment("BHT", "0007", "13", ""))
		_, err := ToClinicalResource(tx)
		var mapErr *errs.MappingError
		require.ErrorAs(t, err, &mapErr)
		assert.Equal(t, errs.MissingField, mapErr.Kind)
		assert.Equal(t, "TRN02", mapErr.Field)
	})

	t.Run("unsupported kind", func(t *testing.T) {
		tx := edi.NewTransaction(edi.EligibilityResponse, "T1")
		_, err := ToClinicalResource(tx)
		var mapErr *errs.MappingError
		require.ErrorAs(t, err, &mapErr)
		assert.Equal(t, errs.UnsupportedTransaction, mapErr.Kind)
	})
}

func TestToLegacyTransaction_Errors(t *testing.T) {
	t.Run("claim target unsupported", func(t *testing.T) {
		claim := &fhir.Claim{ResourceType: constants.ResourceClaim, ID: "C1", Use: "claim"}
		_, err := ToLegacyTransaction(claim, edi.ClaimSubmission)
		var mapErr *errs.MappingError
		require.ErrorAs(t, err, &mapErr)
		assert.Equal(t, errs.UnsupportedTransaction, mapErr.Kind)
	})

	t.Run("missing related patient", func(t *testing.T) {
		resp := &fhir.ClaimResponse{
			ResourceType: constants.ResourceClaimResponse,
			ID:           "CERT-1",
			Identifier: []fhir.Identifier{{
				System: constants.SystemTraceNumber, Value: "T1"}},
		}
		_, err := ToLegacyTransaction(resp, edi.AuthorizationResponse)
		var mapErr *errs.MappingError
		require.ErrorAs(t, err, &mapErr)
		assert.Equal(t, errs.MissingField, mapErr.Kind)
		assert.Equal(t, "Patient", mapErr.Field)
	})
}
