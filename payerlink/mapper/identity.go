package mapper

import (
	"time"

	"github.com/aurelianware/payerlink/payerlink/constants"
	"github.com/aurelianware/payerlink/payerlink/edi"
	"github.com/aurelianware/payerlink/payerlink/fhir"
	"github.com/aurelianware/payerlink/payerlink/models"
)

// IdentityFromTransaction derives the member's demographic identity from the
// subscriber loop of a legacy transaction (NM1*IL, DMG, REF*SY, N3, N4,
// PER*IC). Fields the transaction does not carry stay zero; Matchable()
// decides whether the result supports matching.
func IdentityFromTransaction(tx *edi.Transaction) (models.DemographicIdentity, error) {
	var id models.DemographicIdentity

	member, ok := tx.Entity("NM1", "IL")
	if !ok {
		return id, missingField("NM1*IL")
	}
	id.FamilyName = member.Element(3)
	id.GivenName = member.Element(4)
	if member.Element(8) == "MI" {
		id.MemberID = member.Element(9)
	}

	if ref, ok := tx.Entity("REF", "SY"); ok {
		id.GovernmentID = ref.Element(2)
	}
	if ref, ok := tx.Entity("REF", "0F"); ok {
		id.SubscriberID = ref.Element(2)
	}

	if dmg, ok := tx.First("DMG"); ok {
		if raw := dmg.Element(2); raw != "" {
			dob, err := ParseLegacyDate(raw)
			if err != nil {
				return id, invalidFormat("DMG02", err)
			}
			id.BirthDate = dob
		}
		id.Sex = SexFromLegacy(dmg.Element(3))
	} else {
		id.Sex = "unknown"
	}

	if n3, ok := tx.First("N3"); ok {
		id.AddressLine = n3.Element(1)
	}
	if n4, ok := tx.First("N4"); ok {
		id.City = n4.Element(1)
		id.State = n4.Element(2)
		id.PostalCode = n4.Element(3)
	}
	if per, ok := tx.Entity("PER", "IC"); ok {
		id.Phone, id.Email = parseContact(per)
	}

	return id, nil
}

// IdentityFromPatient derives the demographic identity from a patient
// resource, the inverse of the transaction derivation.
func IdentityFromPatient(p *fhir.Patient) models.DemographicIdentity {
	var id models.DemographicIdentity
	if p == nil {
		return id
	}

	for _, ident := range p.Identifier {
		switch ident.System {
		case constants.SystemMemberID:
			id.MemberID = ident.Value
		case constants.SystemSubscriberID:
			id.SubscriberID = ident.Value
		case constants.SystemGovernmentID:
			id.GovernmentID = ident.Value
		}
	}

	if len(p.Name) > 0 {
		id.FamilyName = p.Name[0].Family
		if len(p.Name[0].Given) > 0 {
			id.GivenName = p.Name[0].Given[0]
		}
	}

	if p.BirthDate != "" {
		if dob, err := time.ParseInLocation(fhirDateLayout, p.BirthDate, time.UTC); err == nil {
			id.BirthDate = dob
		}
	}
	id.Sex = p.Gender
	if id.Sex == "" {
		id.Sex = "unknown"
	}

	if len(p.Address) > 0 {
		addr := p.Address[0]
		if len(addr.Line) > 0 {
			id.AddressLine = addr.Line[0]
		}
		id.City = addr.City
		id.State = addr.State
		id.PostalCode = addr.PostalCode
	}

	for _, t := range p.Telecom {
		switch t.System {
		case "phone":
			if id.Phone == "" {
				id.Phone = t.Value
			}
		case "email":
			if id.Email == "" {
				id.Email = t.Value
			}
		}
	}

	return id
}

// patientFromIdentity builds the patient resource for a derived identity.
// Identifier order follows the legacy transmission order: member ID first,
// then government ID.
func patientFromIdentity(id models.DemographicIdentity) *fhir.Patient {
	p := &fhir.Patient{
		ResourceType: constants.ResourcePatient,
		ID:           id.MemberID,
		Meta:         &fhir.Meta{Profile: []string{constants.ProfilePatient}},
		Gender:       id.Sex,
	}

	if id.MemberID != "" {
		p.Identifier = append(p.Identifier, fhir.Identifier{
			System: constants.SystemMemberID, Value: id.MemberID})
	}
	if id.SubscriberID != "" {
		p.Identifier = append(p.Identifier, fhir.Identifier{
			System: constants.SystemSubscriberID, Value: id.SubscriberID})
	}
	if id.GovernmentID != "" {
		p.Identifier = append(p.Identifier, fhir.Identifier{
			System: constants.SystemGovernmentID, Value: id.GovernmentID})
	}

	if id.FamilyName != "" || id.GivenName != "" {
		name := fhir.HumanName{Use: "official", Family: id.FamilyName}
		if id.GivenName != "" {
			name.Given = []string{id.GivenName}
		}
		p.Name = []fhir.HumanName{name}
	}

	if !id.BirthDate.IsZero() {
		p.BirthDate = id.BirthDate.Format(fhirDateLayout)
	}

	if id.AddressLine != "" || id.City != "" || id.PostalCode != "" {
		addr := fhir.Address{
			Use:        "home",
			City:       id.City,
			State:      id.State,
			PostalCode: id.PostalCode,
		}
		if id.AddressLine != "" {
			addr.Line = []string{id.AddressLine}
		}
		p.Address = []fhir.Address{addr}
	}

	if id.Phone != "" {
		p.Telecom = append(p.Telecom, fhir.ContactPoint{System: "phone", Value: id.Phone})
	}
	if id.Email != "" {
		p.Telecom = append(p.Telecom, fhir.ContactPoint{System: "email", Value: id.Email})
	}

	return p
}
