package errors

import "fmt"

// MappingErrorKind classifies field mapping failures.
type MappingErrorKind string

const (
	MissingField           MappingErrorKind = "MissingField"
	InvalidFormat          MappingErrorKind = "InvalidFormat"
	UnsupportedTransaction MappingErrorKind = "UnsupportedTransaction"
)

type MappingError struct {
	Kind  MappingErrorKind
	Field string
	Err   error
}

func (e *MappingError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("mapping error (%s) on field %s: %v", e.Kind, e.Field, e.Err)
	}
	return fmt.Sprintf("mapping error (%s): %v", e.Kind, e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }

// ConsentErrorKind classifies consent gate failures.
type ConsentErrorKind string

const (
	EmptyScope ConsentErrorKind = "EmptyScope"
)

type ConsentError struct {
	Kind         ConsentErrorKind
	MemberID     string
	Counterparty string
}

func (e *ConsentError) Error() string {
	return fmt.Sprintf("consent error (%s) for member %s, counterparty %s", e.Kind, e.MemberID, e.Counterparty)
}

// ExchangeErrorKind classifies whole-operation bulk exchange failures.
// Per-record failures during import are ValidationErrors collected in the
// result, never an ExchangeError.
type ExchangeErrorKind string

const (
	BatchUnreadable   ExchangeErrorKind = "BatchUnreadable"
	SourceUnavailable ExchangeErrorKind = "SourceUnavailable"
)

type ExchangeError struct {
	Kind    ExchangeErrorKind
	BatchID string
	Err     error
}

func (e *ExchangeError) Error() string {
	if e.BatchID != "" {
		return fmt.Sprintf("exchange error (%s) for batch %s: %v", e.Kind, e.BatchID, e.Err)
	}
	return fmt.Sprintf("exchange error (%s): %v", e.Kind, e.Err)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// TimelineErrorKind classifies authorization timeline failures.
type TimelineErrorKind string

const (
	AlreadyDecided TimelineErrorKind = "AlreadyDecided"
)

type TimelineError struct {
	Kind      TimelineErrorKind
	RequestID string
}

func (e *TimelineError) Error() string {
	return fmt.Sprintf("timeline error (%s) for request %s", e.Kind, e.RequestID)
}

// ValidationError is a per-record structural failure captured during a
// streaming import. Position is the record's position in its stream,
// starting at 1.
type ValidationError struct {
	Position     int
	ResourceType string
	Msg          string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("record %d (%s): %s", e.Position, e.ResourceType, e.Msg)
}
