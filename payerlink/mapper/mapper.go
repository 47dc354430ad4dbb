// Package mapper converts legacy transaction segment data to clinical
// resources and back. Both directions are total over well-formed input and
// return a MappingError, never panic, on malformed input.
package mapper

import (
	"strconv"
	"strings"

	"github.com/aurelianware/payerlink/payerlink/constants"
	"github.com/aurelianware/payerlink/payerlink/edi"
	"github.com/aurelianware/payerlink/payerlink/fhir"
	"github.com/aurelianware/payerlink/payerlink/models"
)

// Result is one transaction's clinical projection: the primary resource the
// transaction is about, plus the related resources derived alongside it
// (the member's patient record, coverage). The caller owns the result.
type Result struct {
	Primary fhir.Resource
	Related []fhir.Resource
}

// Resources returns primary and related as one slice, primary first.
func (r *Result) Resources() []fhir.Resource {
	out := make([]fhir.Resource, 0, 1+len(r.Related))
	out = append(out, r.Primary)
	return append(out, r.Related...)
}

// ToClinicalResource converts one legacy transaction into clinical
// resources. The transaction kind selects the mapping; unrecognized kinds
// return MappingError(UnsupportedTransaction).
func ToClinicalResource(tx *edi.Transaction) (*Result, error) {
	switch tx.Kind {
	case edi.AuthorizationRequest:
		return authorizationRequestToClaim(tx)
	case edi.AuthorizationResponse:
		return authorizationResponseToClaimResponse(tx)
	case edi.EligibilityInquiry:
		return eligibilityInquiryToPatient(tx)
	case edi.ClaimSubmission:
		return claimSubmissionToClaim(tx)
	default:
		return nil, unsupportedTransaction(tx.Kind)
	}
}

// traceNumber pulls the TRN02 trace that identifies a review request across
// both directions of the exchange.
func traceNumber(tx *edi.Transaction) (string, error) {
	trn, ok := tx.First("TRN")
	if !ok || trn.Element(2) == "" {
		return "", missingField("TRN02")
	}
	return trn.Element(2), nil
}

// bhtCreated reads the BHT04 transaction creation date as a FHIR date.
func bhtCreated(tx *edi.Transaction) (string, error) {
	bht, ok := tx.First("BHT")
	if !ok {
		return "", missingField("BHT")
	}
	raw := bht.Element(4)
	if raw == "" {
		return "", nil
	}
	created, err := legacyToFHIRDate(raw)
	if err != nil {
		return "", invalidFormat("BHT04", err)
	}
	return created, nil
}

// patientID falls back from the member ID through the government ID to a
// trace-derived ID so every mapped patient carries a stable identifier.
func patientID(identity models.DemographicIdentity, trace string) string {
	switch {
	case identity.MemberID != "":
		return identity.MemberID
	case identity.GovernmentID != "":
		return identity.GovernmentID
	default:
		return trace + "-member"
	}
}

func providerReference(tx *edi.Transaction, qualifier string) *fhir.Reference {
	prov, ok := tx.Entity("NM1", qualifier)
	if !ok {
		return nil
	}
	var display string
	if prov.Element(2) == "2" {
		display = prov.Element(3)
	} else {
		display = strings.TrimSpace(prov.Element(4) + " " + prov.Element(3))
	}
	return &fhir.Reference{Display: display}
}

func authorizationRequestToClaim(tx *edi.Transaction) (*Result, error) {
	trace, err := traceNumber(tx)
	if err != nil {
		return nil, err
	}
	created, err := bhtCreated(tx)
	if err != nil {
		return nil, err
	}

	identity, err := IdentityFromTransaction(tx)
	if err != nil {
		return nil, err
	}
	patient := patientFromIdentity(identity)
	patient.ID = patientID(identity, trace)

	um, ok := tx.First("UM")
	if !ok {
		return nil, missingField("UM")
	}

	serviceType := ServiceTypeConcept(um.Element(3))
	item := fhir.ClaimItem{Sequence: 1, Category: &serviceType}
	if dtp, ok := tx.Entity("DTP", "472"); ok {
		period, err := parseLegacyPeriod(dtp.Element(2), dtp.Element(3))
		if err != nil {
			return nil, invalidFormat("DTP03", err)
		}
		if period.Start == period.End {
			item.ServicedDate = period.Start
		} else {
			item.ServicedPeriod = period
		}
	}

	claim := &fhir.Claim{
		ResourceType: constants.ResourceClaim,
		ID:           trace,
		Meta:         &fhir.Meta{Profile: []string{constants.ProfileClaim}},
		Identifier: []fhir.Identifier{{
			System: constants.SystemTraceNumber, Value: trace}},
		Status:   "active",
		Use:      "preauthorization",
		Priority: PriorityConcept(um.Element(6)),
		Patient:  &fhir.Reference{Reference: "Patient/" + patient.ID},
		Created:  created,
		Provider: providerReference(tx, "1P"),
		Item:     []fhir.ClaimItem{item},
	}

	if cat := um.Element(1); cat != "" {
		claim.Extension = append(claim.Extension, fhir.Extension{
			URL: constants.SystemRequestCategory, ValueCode: cat})
	}
	if certType := um.Element(2); certType != "" {
		claim.Extension = append(claim.Extension, fhir.Extension{
			URL: constants.SystemCertificationType, ValueCode: certType})
	}

	return &Result{Primary: claim, Related: []fhir.Resource{patient}}, nil
}

func authorizationResponseToClaimResponse(tx *edi.Transaction) (*Result, error) {
	trace, err := traceNumber(tx)
	if err != nil {
		return nil, err
	}
	created, err := bhtCreated(tx)
	if err != nil {
		return nil, err
	}

	identity, err := IdentityFromTransaction(tx)
	if err != nil {
		return nil, err
	}
	patient := patientFromIdentity(identity)
	patient.ID = patientID(identity, trace)

	hcr, ok := tx.First("HCR")
	if !ok {
		return nil, missingField("HCR")
	}
	decision := DecisionConcept(hcr.Element(1))
	certNumber := hcr.Element(2)

	id := certNumber
	if id == "" {
		id = trace
	}

	resp := &fhir.ClaimResponse{
		ResourceType: constants.ResourceClaimResponse,
		ID:           id,
		Meta:         &fhir.Meta{Profile: []string{constants.ProfileClaimResponse}},
		Identifier: []fhir.Identifier{{
			System: constants.SystemTraceNumber, Value: trace}},
		Status:      "active",
		Use:         "preauthorization",
		Patient:     &fhir.Reference{Reference: "Patient/" + patient.ID},
		Created:     created,
		Request:     &fhir.Reference{Reference: "Claim/" + trace},
		Outcome:     "complete",
		Disposition: decision.Text,
		PreAuthRef:  certNumber,
		Decision:    &decision,
	}

	if certNumber != "" {
		resp.Identifier = append(resp.Identifier, fhir.Identifier{
			System: constants.SystemCertification, Value: certNumber})
	}

	if dtp, ok := tx.Entity("DTP", "036"); ok {
		period, err := parseLegacyPeriod(dtp.Element(2), dtp.Element(3))
		if err != nil {
			return nil, invalidFormat("DTP03", err)
		}
		resp.PreAuthPeriod = period
	}

	return &Result{Primary: resp, Related: []fhir.Resource{patient}}, nil
}

func eligibilityInquiryToPatient(tx *edi.Transaction) (*Result, error) {
	trace, err := traceNumber(tx)
	if err != nil {
		return nil, err
	}

	identity, err := IdentityFromTransaction(tx)
	if err != nil {
		return nil, err
	}
	patient := patientFromIdentity(identity)
	patient.ID = patientID(identity, trace)

	coverage := &fhir.Coverage{
		ResourceType: constants.ResourceCoverage,
		ID:           patient.ID + "-coverage",
		Meta:         &fhir.Meta{Profile: []string{constants.ProfileCoverage}},
		Status:       "active",
		SubscriberID: identity.SubscriberID,
		Beneficiary:  &fhir.Reference{Reference: "Patient/" + patient.ID},
	}
	if coverage.SubscriberID == "" {
		coverage.SubscriberID = identity.MemberID
	}

	if payer, ok := tx.Entity("NM1", "PR"); ok {
		ref := fhir.Reference{Display: payer.Element(3)}
		coverage.Payor = []fhir.Reference{ref}
		if payer.Element(8) == "PI" && payer.Element(9) != "" {
			coverage.Identifier = append(coverage.Identifier, fhir.Identifier{
				System: constants.SystemTraceNumber, Value: payer.Element(9)})
		}
	}

	if eq, ok := tx.First("EQ"); ok {
		concept := ServiceTypeConcept(eq.Element(1))
		coverage.Type = &concept
	}

	return &Result{Primary: patient, Related: []fhir.Resource{coverage}}, nil
}

func claimSubmissionToClaim(tx *edi.Transaction) (*Result, error) {
	clm, ok := tx.First("CLM")
	if !ok {
		return nil, missingField("CLM")
	}
	claimID := clm.Element(1)
	if claimID == "" {
		return nil, missingField("CLM01")
	}

	created, err := bhtCreated(tx)
	if err != nil {
		return nil, err
	}

	identity, err := IdentityFromTransaction(tx)
	if err != nil {
		return nil, err
	}
	patient := patientFromIdentity(identity)
	patient.ID = patientID(identity, claimID)

	claim := &fhir.Claim{
		ResourceType: constants.ResourceClaim,
		ID:           claimID,
		Meta:         &fhir.Meta{Profile: []string{constants.ProfileClaim}},
		Identifier: []fhir.Identifier{{
			System: constants.SystemClaimNumber, Value: claimID}},
		Status:   "active",
		Use:      "claim",
		Patient:  &fhir.Reference{Reference: "Patient/" + patient.ID},
		Created:  created,
		Provider: providerReference(tx, "85"),
	}

	if raw := clm.Element(2); raw != "" {
		total, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, invalidFormat("CLM02", err)
		}
		claim.Total = &fhir.Money{Value: total, Currency: "USD"}
	}

	var servicedDate string
	var servicedPeriod *fhir.Period
	if dtp, ok := tx.Entity("DTP", "472"); ok {
		period, err := parseLegacyPeriod(dtp.Element(2), dtp.Element(3))
		if err != nil {
			return nil, invalidFormat("DTP03", err)
		}
		if period.Start == period.End {
			servicedDate = period.Start
		} else {
			servicedPeriod = period
		}
	}

	for i, sv1 := range tx.All("SV1") {
		item := fhir.ClaimItem{
			Sequence:       i + 1,
			ServicedDate:   servicedDate,
			ServicedPeriod: servicedPeriod,
		}
		if code := sv1.Element(1); code != "" {
			item.ProductOrService = &fhir.CodeableConcept{
				Coding: []fhir.Coding{{Code: code}}}
		}
		if raw := sv1.Element(2); raw != "" {
			charge, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, invalidFormat("SV102", err)
			}
			item.UnitPrice = &fhir.Money{Value: charge, Currency: "USD"}
		}
		if raw := sv1.Element(4); raw != "" {
			qty, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, invalidFormat("SV104", err)
			}
			item.Quantity = &fhir.Quantity{Value: qty, Unit: sv1.Element(3)}
		}
		claim.Item = append(claim.Item, item)
	}

	return &Result{Primary: claim, Related: []fhir.Resource{patient}}, nil
}
