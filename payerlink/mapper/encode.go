package mapper

import (
	"strings"

	"github.com/aurelianware/payerlink/payerlink/constants"
	"github.com/aurelianware/payerlink/payerlink/edi"
	"github.com/aurelianware/payerlink/payerlink/fhir"
	"github.com/aurelianware/payerlink/payerlink/models"
)

const (
	purposeRequest  = "13"
	purposeResponse = "11"
)

// ToLegacyTransaction converts a clinical resource back into a legacy
// transaction of the target kind. Related resources supply context the
// primary resource does not carry; in particular the member's patient
// record, which the subscriber loop of every legacy transaction requires.
func ToLegacyTransaction(resource fhir.Resource, target edi.TransactionKind, related ...fhir.Resource) (*edi.Transaction, error) {
	switch target {
	case edi.EligibilityInquiry:
		p, ok := resource.(*fhir.Patient)
		if !ok {
			return nil, missingField("Patient")
		}
		return patientToEligibilityInquiry(p, related)
	case edi.AuthorizationRequest:
		c, ok := resource.(*fhir.Claim)
		if !ok || c.Use != "preauthorization" {
			return nil, missingField("Claim(preauthorization)")
		}
		return claimToAuthorizationRequest(c, related)
	case edi.AuthorizationResponse:
		r, ok := resource.(*fhir.ClaimResponse)
		if !ok {
			return nil, missingField("ClaimResponse")
		}
		return claimResponseToAuthorizationResponse(r, related)
	default:
		return nil, unsupportedTransaction(target)
	}
}

// seg builds a segment with trailing empty elements trimmed, matching how
// legacy senders truncate optional tail elements.
func seg(id string, elements ...string) edi.Segment {
	end := len(elements)
	for end > 0 && elements[end-1] == "" {
		end--
	}
	return edi.Segment{ID: id, Elements: elements[:end]}
}

// relatedPatient finds the member's patient record among the related
// resources.
func relatedPatient(related []fhir.Resource) *fhir.Patient {
	for _, r := range related {
		if p, ok := r.(*fhir.Patient); ok {
			return p
		}
	}
	return nil
}

func relatedCoverage(related []fhir.Resource) *fhir.Coverage {
	for _, r := range related {
		if c, ok := r.(*fhir.Coverage); ok {
			return c
		}
	}
	return nil
}

// identifierValue returns the value of the identifier with the given
// system, or empty.
func identifierValue(identifiers []fhir.Identifier, system string) string {
	for _, ident := range identifiers {
		if ident.System == system {
			return ident.Value
		}
	}
	return ""
}

// extensionCode returns the valueCode of the extension at the given URL.
func extensionCode(exts []fhir.Extension, url string) string {
	for _, ext := range exts {
		if ext.URL == url {
			return ext.ValueCode
		}
	}
	return ""
}

// appendHeader writes the BHT and TRN header pair. The creation date is
// optional on the clinical side and is dropped when absent.
func appendHeader(tx *edi.Transaction, purpose, trace, created string) error {
	var date string
	if created != "" {
		var err error
		date, err = fhirToLegacyDate(created)
		if err != nil {
			return invalidFormat("created", err)
		}
	}
	tx.Append(seg("BHT", "0007", purpose, trace, date))
	tx.Append(seg("TRN", "1", trace))
	return nil
}

// appendSubscriberLoop writes the member's demographic segments in the
// legacy subscriber loop order. The sex element is omitted for unknown; an
// entirely empty DMG is not written.
func appendSubscriberLoop(tx *edi.Transaction, identity models.DemographicIdentity) {
	memberQual, memberID := "", ""
	if identity.MemberID != "" {
		memberQual, memberID = "MI", identity.MemberID
	}
	tx.Append(seg("NM1", "IL", "1", identity.FamilyName, identity.GivenName,
		"", "", "", memberQual, memberID))

	if identity.GovernmentID != "" {
		tx.Append(seg("REF", "SY", identity.GovernmentID))
	}
	if identity.SubscriberID != "" {
		tx.Append(seg("REF", "0F", identity.SubscriberID))
	}

	dob := ""
	if !identity.BirthDate.IsZero() {
		dob = FormatLegacyDate(identity.BirthDate)
	}
	sex := SexToLegacy(identity.Sex)
	if dob != "" || sex != "" {
		format := ""
		if dob != "" {
			format = "D8"
		}
		tx.Append(seg("DMG", format, dob, sex))
	}

	if identity.AddressLine != "" {
		tx.Append(seg("N3", identity.AddressLine))
	}
	if identity.City != "" || identity.State != "" || identity.PostalCode != "" {
		tx.Append(seg("N4", identity.City, identity.State, identity.PostalCode))
	}
	if identity.Phone != "" || identity.Email != "" {
		elements := []string{"IC", ""}
		if identity.Phone != "" {
			elements = append(elements, "TE", identity.Phone)
		}
		if identity.Email != "" {
			elements = append(elements, "EM", identity.Email)
		}
		tx.Append(seg("PER", elements...))
	}
}

func patientToEligibilityInquiry(p *fhir.Patient, related []fhir.Resource) (*edi.Transaction, error) {
	identity := IdentityFromPatient(p)
	trace := identity.MemberID
	if trace == "" {
		trace = p.ID
	}
	if trace == "" {
		return nil, missingField("Patient.id")
	}

	tx := edi.NewTransaction(edi.EligibilityInquiry, trace)
	if err := appendHeader(tx, purposeRequest, trace, ""); err != nil {
		return nil, err
	}

	coverage := relatedCoverage(related)
	if coverage != nil && len(coverage.Payor) > 0 {
		payerID := identifierValue(coverage.Identifier, constants.SystemTraceNumber)
		qual := ""
		if payerID != "" {
			qual = "PI"
		}
		tx.Append(seg("NM1", "PR", "2", coverage.Payor[0].Display,
			"", "", "", "", qual, payerID))
	}

	appendSubscriberLoop(tx, identity)

	if coverage != nil && coverage.Type != nil {
		tx.Append(seg("EQ", ServiceTypeCode(coverage.Type)))
	}
	return tx, nil
}

func claimToAuthorizationRequest(c *fhir.Claim, related []fhir.Resource) (*edi.Transaction, error) {
	trace := identifierValue(c.Identifier, constants.SystemTraceNumber)
	if trace == "" {
		trace = c.ID
	}
	if trace == "" {
		return nil, missingField("Claim.identifier")
	}

	patient := relatedPatient(related)
	if patient == nil {
		return nil, missingField("Patient")
	}

	tx := edi.NewTransaction(edi.AuthorizationRequest, trace)
	if err := appendHeader(tx, purposeRequest, trace, c.Created); err != nil {
		return nil, err
	}
	appendSubscriberLoop(tx, IdentityFromPatient(patient))

	if c.Provider != nil && c.Provider.Display != "" {
		tx.Append(seg("NM1", "1P", "2", c.Provider.Display))
	}

	requestCategory := extensionCode(c.Extension, constants.SystemRequestCategory)
	if requestCategory == "" {
		requestCategory = "HS"
	}
	certType := extensionCode(c.Extension, constants.SystemCertificationType)
	if certType == "" {
		certType = "I"
	}
	serviceType := ""
	if len(c.Item) > 0 && c.Item[0].Category != nil {
		serviceType = ServiceTypeCode(c.Item[0].Category)
	}
	tx.Append(seg("UM", requestCategory, certType, serviceType, "", "",
		PriorityCode(c.Priority)))

	if len(c.Item) > 0 {
		item := c.Item[0]
		period := item.ServicedPeriod
		if period == nil && item.ServicedDate != "" {
			period = &fhir.Period{Start: item.ServicedDate, End: item.ServicedDate}
		}
		if period != nil {
			format, value, err := formatLegacyPeriod(period)
			if err != nil {
				return nil, invalidFormat("item.serviced", err)
			}
			tx.Append(seg("DTP", "472", format, value))
		}
	}
	return tx, nil
}

func claimResponseToAuthorizationResponse(r *fhir.ClaimResponse, related []fhir.Resource) (*edi.Transaction, error) {
	trace := identifierValue(r.Identifier, constants.SystemTraceNumber)
	if trace == "" && r.Request != nil {
		trace = strings.TrimPrefix(r.Request.Reference, "Claim/")
	}
	if trace == "" {
		trace = r.ID
	}
	if trace == "" {
		return nil, missingField("ClaimResponse.identifier")
	}

	patient := relatedPatient(related)
	if patient == nil {
		return nil, missingField("Patient")
	}

	tx := edi.NewTransaction(edi.AuthorizationResponse, trace)
	if err := appendHeader(tx, purposeResponse, trace, r.Created); err != nil {
		return nil, err
	}
	appendSubscriberLoop(tx, IdentityFromPatient(patient))

	cert := r.PreAuthRef
	if cert == "" {
		cert = identifierValue(r.Identifier, constants.SystemCertification)
	}
	tx.Append(seg("HCR", DecisionCode(r.Decision), cert))

	if r.PreAuthPeriod != nil {
		format, value, err := formatLegacyPeriod(r.PreAuthPeriod)
		if err != nil {
			return nil, invalidFormat("preAuthPeriod", err)
		}
		tx.Append(seg("DTP", "036", format, value))
	}
	return tx, nil
}
