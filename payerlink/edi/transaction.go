// Package edi models the structured segment representation of legacy
// fixed-position healthcare transactions. The engine never parses raw
// transaction bytes; an external encoder/decoder produces and consumes
// this representation.
package edi

// TransactionKind identifies the transaction set a segment collection
// belongs to. The values mirror the legacy transaction set codes.
type TransactionKind string

const (
	EligibilityInquiry    TransactionKind = "270"
	EligibilityResponse   TransactionKind = "271"
	AuthorizationRequest  TransactionKind = "278-request"
	AuthorizationResponse TransactionKind = "278-response"
	ClaimSubmission       TransactionKind = "837"
)

// A Segment is one typed unit of a legacy transaction: a two or three
// character identifier followed by positional data elements. Element
// positions are 1-based to match the legacy element numbering (UM01 is
// Element(1)).
type Segment struct {
	ID       string
	Elements []string
}

// NewSegment builds a segment from its identifier and ordered elements.
func NewSegment(id string, elements ...string) Segment {
	return Segment{ID: id, Elements: elements}
}

// Element returns the data element at the given 1-based position, or the
// empty string when the position is beyond the transmitted elements. Legacy
// senders routinely omit trailing empty elements.
func (s Segment) Element(pos int) string {
	if pos < 1 || pos > len(s.Elements) {
		return ""
	}
	return s.Elements[pos-1]
}

// Qualifier returns the first element, which for entity and reference
// segments carries the qualifying code (NM1*IL, REF*SY).
func (s Segment) Qualifier() string {
	return s.Element(1)
}

// A Transaction is an ordered, read-only collection of segments. Mapper
// input transactions are never mutated; output transactions are built
// append-only.
type Transaction struct {
	Kind          TransactionKind
	ControlNumber string
	Segments      []Segment
}

// NewTransaction starts an empty transaction of the given kind.
func NewTransaction(kind TransactionKind, controlNumber string) *Transaction {
	return &Transaction{Kind: kind, ControlNumber: controlNumber}
}

// Append adds segments in order.
func (t *Transaction) Append(segments ...Segment) *Transaction {
	t.Segments = append(t.Segments, segments...)
	return t
}

// First returns the first segment with the given identifier.
func (t *Transaction) First(id string) (Segment, bool) {
	for _, s := range t.Segments {
		if s.ID == id {
			return s, true
		}
	}
	return Segment{}, false
}

// All returns every segment with the given identifier, in transmission order.
func (t *Transaction) All(id string) []Segment {
	var out []Segment
	for _, s := range t.Segments {
		if s.ID == id {
			out = append(out, s)
		}
	}
	return out
}

// Entity returns the first segment with the given identifier whose first
// element equals the qualifier, e.g. Entity("NM1", "IL") for the member
// entity block.
func (t *Transaction) Entity(id, qualifier string) (Segment, bool) {
	for _, s := range t.Segments {
		if s.ID == id && s.Qualifier() == qualifier {
			return s, true
		}
	}
	return Segment{}, false
}

// EntityAll returns every segment with the given identifier and qualifier.
func (t *Transaction) EntityAll(id, qualifier string) []Segment {
	var out []Segment
	for _, s := range t.Segments {
		if s.ID == id && s.Qualifier() == qualifier {
			out = append(out, s)
		}
	}
	return out
}

// Loop returns the segments of the first hierarchical loop with the given
// level code (HL03): everything after that HL segment up to the next HL or
// the end of the transaction. The HL segment itself is not included.
// Transactions without HL structure have no loops.
func (t *Transaction) Loop(levelCode string) []Segment {
	start := -1
	for i, s := range t.Segments {
		if s.ID == "HL" && s.Element(3) == levelCode {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil
	}
	for i := start; i < len(t.Segments); i++ {
		if t.Segments[i].ID == "HL" {
			return t.Segments[start:i]
		}
	}
	return t.Segments[start:]
}
