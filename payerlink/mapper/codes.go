package mapper

import (
	"github.com/aurelianware/payerlink/payerlink/constants"
	"github.com/aurelianware/payerlink/payerlink/fhir"
)

// The lookup tables below are the single source of truth for legacy code
// translation. They are data on purpose: compliance staff extend them per
// counterparty without touching mapping logic. Unknown codes never fail a
// mapping; they pass through as the other/unspecified concept with the
// original code preserved in an extension.

// Decision is the canonical review outcome for one legacy decision code.
type Decision struct {
	Status  string
	Display string
}

// Review decision statuses. CertifiedInPart and Modified both resolve to
// StatusModified; the two legacy codes describe the same outcome and this
// table maps them uniformly.
const (
	StatusApproved  = "approved"
	StatusPended    = "pended"
	StatusDenied    = "denied"
	StatusModified  = "modified"
	StatusCancelled = "cancelled"
	StatusOther     = "other"
)

// ReviewDecisions maps legacy certification action codes (HCR01) to review
// outcomes.
var ReviewDecisions = map[string]Decision{
	"A1": {Status: StatusApproved, Display: "Certified in total"},
	"A2": {Status: StatusModified, Display: "Certified in part"},
	"A3": {Status: StatusDenied, Display: "Denied"},
	"A4": {Status: StatusPended, Display: "Pended"},
	"A6": {Status: StatusModified, Display: "Modified"},
	"C":  {Status: StatusCancelled, Display: "Cancelled"},
	"CT": {Status: StatusPended, Display: "Contact payer"},
}

// decisionDefaultCodes picks the legacy code emitted for a canonical status
// when the original code was not preserved on the resource.
var decisionDefaultCodes = map[string]string{
	StatusApproved:  "A1",
	StatusPended:    "A4",
	StatusDenied:    "A3",
	StatusModified:  "A6",
	StatusCancelled: "C",
}

// ServiceTypes maps legacy service type category codes (UM03, EQ01) to
// display names.
var ServiceTypes = map[string]string{
	"1":  "Medical Care",
	"2":  "Surgical",
	"3":  "Consultation",
	"12": "Durable Medical Equipment Purchase",
	"33": "Chiropractic",
	"35": "Dental Care",
	"47": "Hospital",
	"48": "Hospital - Inpatient",
	"50": "Hospital - Outpatient",
	"86": "Emergency Services",
	"98": "Professional Physician Visit - Office",
	"A4": "Psychiatric",
	"AL": "Vision (Optometry)",
	"MH": "Mental Health",
	"UC": "Urgent Care",
}

// LevelsOfService maps legacy level of service codes (UM06) to request
// priorities.
var LevelsOfService = map[string]string{
	"U":  "urgent",
	"03": "urgent", // emergency
	"E":  "routine",
	"1":  "routine",
}

const (
	otherUnspecifiedCode    = "other-unspecified"
	otherUnspecifiedDisplay = "Other/Unspecified"
)

// PriorityConcept maps a legacy level of service code to a request priority
// concept. The empty code means the sender did not classify the request;
// that resolves to routine with no original-code extension.
func PriorityConcept(code string) *fhir.CodeableConcept {
	if code == "" {
		return &fhir.CodeableConcept{Coding: []fhir.Coding{{
			System: constants.SystemLevelOfService, Code: "routine"}}}
	}
	priority, ok := LevelsOfService[code]
	if !ok {
		priority = "routine"
	}
	return &fhir.CodeableConcept{
		Coding: []fhir.Coding{{
			System: constants.SystemLevelOfService,
			Code:   priority,
		}},
		Extension: []fhir.Extension{{
			URL:       constants.SystemOriginalCode,
			ValueCode: code,
		}},
	}
}

// PriorityCode reverses a priority concept to its legacy level of service
// code, preferring the preserved original.
func PriorityCode(concept *fhir.CodeableConcept) string {
	if concept == nil {
		return ""
	}
	if code := originalCode(concept.Extension); code != "" {
		return code
	}
	if len(concept.Coding) > 0 && concept.Coding[0].Code == "urgent" {
		return "U"
	}
	return ""
}

// DecisionConcept maps a legacy decision code to its coded concept. The
// original code is always preserved in an extension so reverse mapping and
// audits see exactly what the counterparty sent.
func DecisionConcept(code string) fhir.CodeableConcept {
	d, ok := ReviewDecisions[code]
	if !ok {
		d = Decision{Status: StatusOther, Display: otherUnspecifiedDisplay}
	}
	return fhir.CodeableConcept{
		Coding: []fhir.Coding{{
			System:  constants.SystemReviewDecision,
			Code:    d.Status,
			Display: d.Display,
		}},
		Text: d.Display,
		Extension: []fhir.Extension{{
			URL:       constants.SystemOriginalCode,
			ValueCode: code,
		}},
	}
}

// DecisionCode reverses a decision concept to its legacy code, preferring
// the preserved original code.
func DecisionCode(concept *fhir.CodeableConcept) string {
	if concept == nil {
		return ""
	}
	if code := originalCode(concept.Extension); code != "" {
		return code
	}
	if len(concept.Coding) > 0 {
		if code, ok := decisionDefaultCodes[concept.Coding[0].Code]; ok {
			return code
		}
	}
	return ""
}

// ServiceTypeConcept maps a legacy service type code to its coded concept.
// Unknown codes become the other/unspecified concept with the original code
// in an extension, never an error.
func ServiceTypeConcept(code string) fhir.CodeableConcept {
	display, ok := ServiceTypes[code]
	if !ok {
		return fhir.CodeableConcept{
			Coding: []fhir.Coding{{
				System:  constants.SystemServiceType,
				Code:    otherUnspecifiedCode,
				Display: otherUnspecifiedDisplay,
			}},
			Text: otherUnspecifiedDisplay,
			Extension: []fhir.Extension{{
				URL:       constants.SystemOriginalCode,
				ValueCode: code,
			}},
		}
	}
	return fhir.CodeableConcept{
		Coding: []fhir.Coding{{
			System:  constants.SystemServiceType,
			Code:    code,
			Display: display,
		}},
		Text: display,
	}
}

// ServiceTypeCode reverses a service type concept to its legacy code.
func ServiceTypeCode(concept *fhir.CodeableConcept) string {
	if concept == nil {
		return ""
	}
	if len(concept.Coding) > 0 && concept.Coding[0].Code != otherUnspecifiedCode {
		return concept.Coding[0].Code
	}
	return originalCode(concept.Extension)
}

func originalCode(exts []fhir.Extension) string {
	for _, e := range exts {
		if e.URL == constants.SystemOriginalCode {
			if e.ValueCode != "" {
				return e.ValueCode
			}
			return e.ValueString
		}
	}
	return ""
}
