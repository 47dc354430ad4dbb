package mapper

import (
	"fmt"
	"strings"
	"time"

	"github.com/aurelianware/payerlink/payerlink/edi"
	errs "github.com/aurelianware/payerlink/payerlink/errors"
	"github.com/aurelianware/payerlink/payerlink/fhir"
	"github.com/pkg/errors"
)

const (
	legacyDateLayout = "20060102"   // CCYYMMDD
	fhirDateLayout   = "2006-01-02" // FHIR date
)

// ParseLegacyDate converts a CCYYMMDD value to a calendar date (UTC
// midnight). The conversion is lossless in both directions.
func ParseLegacyDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(legacyDateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid CCYYMMDD date %q", value)
	}
	return t, nil
}

// FormatLegacyDate converts a calendar date back to CCYYMMDD.
func FormatLegacyDate(t time.Time) string {
	return t.Format(legacyDateLayout)
}

// legacyToFHIRDate converts CCYYMMDD to the FHIR date form.
func legacyToFHIRDate(value string) (string, error) {
	t, err := ParseLegacyDate(value)
	if err != nil {
		return "", err
	}
	return t.Format(fhirDateLayout), nil
}

// fhirToLegacyDate converts a FHIR date back to CCYYMMDD.
func fhirToLegacyDate(value string) (string, error) {
	t, err := time.ParseInLocation(fhirDateLayout, value, time.UTC)
	if err != nil {
		return "", errors.Wrapf(err, "invalid FHIR date %q", value)
	}
	return t.Format(legacyDateLayout), nil
}

// parseLegacyPeriod reads a D8 single date or RD8 date range element pair
// into a FHIR period. For D8 the period start and end are the same day.
func parseLegacyPeriod(format, value string) (*fhir.Period, error) {
	switch format {
	case "D8":
		d, err := legacyToFHIRDate(value)
		if err != nil {
			return nil, err
		}
		return &fhir.Period{Start: d, End: d}, nil
	case "RD8":
		parts := strings.SplitN(value, "-", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid RD8 range %q", value)
		}
		start, err := legacyToFHIRDate(parts[0])
		if err != nil {
			return nil, err
		}
		end, err := legacyToFHIRDate(parts[1])
		if err != nil {
			return nil, err
		}
		return &fhir.Period{Start: start, End: end}, nil
	default:
		return nil, fmt.Errorf("unsupported date format qualifier %q", format)
	}
}

// formatLegacyPeriod reverses parseLegacyPeriod: same-day periods become a
// D8 element pair, ranges RD8.
func formatLegacyPeriod(p *fhir.Period) (format, value string, err error) {
	start, err := fhirToLegacyDate(p.Start)
	if err != nil {
		return "", "", err
	}
	if p.End == "" || p.End == p.Start {
		return "D8", start, nil
	}
	end, err := fhirToLegacyDate(p.End)
	if err != nil {
		return "", "", err
	}
	return "RD8", start + "-" + end, nil
}

// Administrative sex code mapping. The legacy single-character code and the
// absent element both collapse to "unknown"; the reverse direction emits the
// absent element as the single canonical representation of "unknown", so
// callers must not assume round-trip fidelity for this one field.
var sexFromCode = map[string]string{
	"M": "male",
	"F": "female",
	"U": "unknown",
}

var sexToCode = map[string]string{
	"male":   "M",
	"female": "F",
	// "unknown" deliberately omitted: canonical reverse form is the absent
	// element.
}

// SexFromLegacy maps a legacy sex code to the three-value enumeration.
// Absent and unrecognized input both map to unknown.
func SexFromLegacy(code string) string {
	if v, ok := sexFromCode[code]; ok {
		return v
	}
	return "unknown"
}

// SexToLegacy maps the enumeration back to a legacy code; unknown maps to
// the empty string (absent element).
func SexToLegacy(gender string) string {
	return sexToCode[gender]
}

// parseContact pulls phone and email out of a PER segment's qualifier/value
// element pairs (PER03/04, PER05/06, PER07/08).
func parseContact(per edi.Segment) (phone, email string) {
	for pos := 3; pos <= 7; pos += 2 {
		switch per.Element(pos) {
		case "TE":
			phone = per.Element(pos + 1)
		case "EM":
			email = per.Element(pos + 1)
		}
	}
	return phone, email
}

func missingField(field string) error {
	return &errs.MappingError{Kind: errs.MissingField, Field: field,
		Err: fmt.Errorf("required field absent")}
}

func invalidFormat(field string, err error) error {
	return &errs.MappingError{Kind: errs.InvalidFormat, Field: field, Err: err}
}

func unsupportedTransaction(kind edi.TransactionKind) error {
	return &errs.MappingError{Kind: errs.UnsupportedTransaction,
		Err: fmt.Errorf("transaction kind %q", kind)}
}
