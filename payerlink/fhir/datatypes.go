// Package fhir holds the clinical resource model structs exchanged by the
// engine. The shapes follow FHIR R4 conventions; profile markers in
// Meta.Profile pin the version the engine produces.
package fhir

// Meta contains metadata about a resource.
type Meta struct {
	VersionID   string   `json:"versionId,omitempty"`
	LastUpdated string   `json:"lastUpdated,omitempty"`
	Profile     []string `json:"profile,omitempty"`
}

// Identifier represents a typed identifier entry tagged with its qualifying
// system.
type Identifier struct {
	Use    string `json:"use,omitempty"`
	System string `json:"system,omitempty"`
	Value  string `json:"value,omitempty"`
}

// Coding represents a code from a terminology system.
type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

// CodeableConcept represents a concept with text and codings. Extensions
// carry payloads the coded form cannot, such as the original legacy code of
// an unrecognized category.
type CodeableConcept struct {
	Coding    []Coding    `json:"coding,omitempty"`
	Text      string      `json:"text,omitempty"`
	Extension []Extension `json:"extension,omitempty"`
}

// Extension is a url-tagged value attached to a resource or element.
type Extension struct {
	URL         string `json:"url"`
	ValueString string `json:"valueString,omitempty"`
	ValueCode   string `json:"valueCode,omitempty"`
}

// HumanName represents a person name.
type HumanName struct {
	Use    string   `json:"use,omitempty"`
	Family string   `json:"family,omitempty"`
	Given  []string `json:"given,omitempty"`
}

// Address represents a postal address.
type Address struct {
	Use        string   `json:"use,omitempty"`
	Line       []string `json:"line,omitempty"`
	City       string   `json:"city,omitempty"`
	State      string   `json:"state,omitempty"`
	PostalCode string   `json:"postalCode,omitempty"`
}

// ContactPoint represents a phone, email, or similar contact detail.
type ContactPoint struct {
	System string `json:"system,omitempty"` // phone | email
	Value  string `json:"value,omitempty"`
	Use    string `json:"use,omitempty"`
}

// Period represents a time period with FHIR date or dateTime boundaries.
type Period struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Reference points at another resource.
type Reference struct {
	Reference string `json:"reference,omitempty"`
	Display   string `json:"display,omitempty"`
}

// Money represents a monetary amount.
type Money struct {
	Value    float64 `json:"value,omitempty"`
	Currency string  `json:"currency,omitempty"`
}

// Quantity represents a counted or measured amount.
type Quantity struct {
	Value float64 `json:"value,omitempty"`
	Unit  string  `json:"unit,omitempty"`
}
