package fhir

import (
	"encoding/json"
	"fmt"
)

// Resource is the behavior every clinical resource shares: a type tag and a
// stable identifier. Batch streams carry resources as self-describing JSON;
// UnmarshalResource dispatches on the resourceType field.
type Resource interface {
	GetResourceType() string
	GetID() string
}

// Patient is the demographic resource for one member.
type Patient struct {
	ResourceType string         `json:"resourceType"`
	ID           string         `json:"id,omitempty"`
	Meta         *Meta          `json:"meta,omitempty"`
	Identifier   []Identifier   `json:"identifier,omitempty"`
	Name         []HumanName    `json:"name,omitempty"`
	Gender       string         `json:"gender,omitempty"` // male | female | unknown
	BirthDate    string         `json:"birthDate,omitempty"`
	Address      []Address      `json:"address,omitempty"`
	Telecom      []ContactPoint `json:"telecom,omitempty"`
	Extension    []Extension    `json:"extension,omitempty"`
}

func (p *Patient) GetResourceType() string { return p.ResourceType }
func (p *Patient) GetID() string           { return p.ID }

// Coverage ties a member to a plan and subscriber.
type Coverage struct {
	ResourceType string           `json:"resourceType"`
	ID           string           `json:"id,omitempty"`
	Meta         *Meta            `json:"meta,omitempty"`
	Identifier   []Identifier     `json:"identifier,omitempty"`
	Status       string           `json:"status,omitempty"`
	Type         *CodeableConcept `json:"type,omitempty"`
	SubscriberID string           `json:"subscriberId,omitempty"`
	Beneficiary  *Reference       `json:"beneficiary,omitempty"`
	Payor        []Reference      `json:"payor,omitempty"`
	Period       *Period          `json:"period,omitempty"`
}

func (c *Coverage) GetResourceType() string { return c.ResourceType }
func (c *Coverage) GetID() string           { return c.ID }

// ClaimItem is one service line on a claim or authorization request.
type ClaimItem struct {
	Sequence         int              `json:"sequence"`
	Category         *CodeableConcept `json:"category,omitempty"`
	ProductOrService *CodeableConcept `json:"productOrService,omitempty"`
	ServicedDate     string           `json:"servicedDate,omitempty"`
	ServicedPeriod   *Period          `json:"servicedPeriod,omitempty"`
	Quantity         *Quantity        `json:"quantity,omitempty"`
	UnitPrice        *Money           `json:"unitPrice,omitempty"`
}

// Claim covers both adjudication claims (use = claim) and authorization
// requests (use = preauthorization).
type Claim struct {
	ResourceType   string           `json:"resourceType"`
	ID             string           `json:"id,omitempty"`
	Meta           *Meta            `json:"meta,omitempty"`
	Identifier     []Identifier     `json:"identifier,omitempty"`
	Status         string           `json:"status,omitempty"`
	Use            string           `json:"use,omitempty"` // claim | preauthorization
	Priority       *CodeableConcept `json:"priority,omitempty"`
	Patient        *Reference       `json:"patient,omitempty"`
	Created        string           `json:"created,omitempty"`
	Provider       *Reference       `json:"provider,omitempty"`
	BillablePeriod *Period          `json:"billablePeriod,omitempty"`
	Item           []ClaimItem      `json:"item,omitempty"`
	Total          *Money           `json:"total,omitempty"`
	Extension      []Extension      `json:"extension,omitempty"`
}

func (c *Claim) GetResourceType() string { return c.ResourceType }
func (c *Claim) GetID() string           { return c.ID }

// ClaimResponse is the authorization response resource. Decision carries the
// mapped review decision concept; PreAuthRef the certification number the
// counterparty assigned.
type ClaimResponse struct {
	ResourceType  string           `json:"resourceType"`
	ID            string           `json:"id,omitempty"`
	Meta          *Meta            `json:"meta,omitempty"`
	Identifier    []Identifier     `json:"identifier,omitempty"`
	Status        string           `json:"status,omitempty"`
	Use           string           `json:"use,omitempty"`
	Patient       *Reference       `json:"patient,omitempty"`
	Created       string           `json:"created,omitempty"`
	Request       *Reference       `json:"request,omitempty"`
	Outcome       string           `json:"outcome,omitempty"`
	Disposition   string           `json:"disposition,omitempty"`
	PreAuthRef    string           `json:"preAuthRef,omitempty"`
	PreAuthPeriod *Period          `json:"preAuthPeriod,omitempty"`
	Decision      *CodeableConcept `json:"decision,omitempty"`
	Extension     []Extension      `json:"extension,omitempty"`
}

func (c *ClaimResponse) GetResourceType() string { return c.ResourceType }
func (c *ClaimResponse) GetID() string           { return c.ID }

// Encounter records one episode of care.
type Encounter struct {
	ResourceType    string       `json:"resourceType"`
	ID              string       `json:"id,omitempty"`
	Meta            *Meta        `json:"meta,omitempty"`
	Identifier      []Identifier `json:"identifier,omitempty"`
	Status          string       `json:"status,omitempty"`
	Class           *Coding      `json:"class,omitempty"`
	Subject         *Reference   `json:"subject,omitempty"`
	Period          *Period      `json:"period,omitempty"`
	ServiceProvider *Reference   `json:"serviceProvider,omitempty"`
}

func (e *Encounter) GetResourceType() string { return e.ResourceType }
func (e *Encounter) GetID() string           { return e.ID }

// typePeek pulls just the resourceType tag out of a raw record.
type typePeek struct {
	ResourceType string `json:"resourceType"`
}

// UnmarshalResource decodes one self-describing record into its concrete
// resource type. Unknown or missing resourceType values are an error; the
// caller decides whether that aborts the operation or only the record.
func UnmarshalResource(data []byte) (Resource, error) {
	var peek typePeek
	if err := json.Unmarshal(data, &peek); err != nil {
		return nil, err
	}

	var r Resource
	switch peek.ResourceType {
	case "Patient":
		r = &Patient{}
	case "Coverage":
		r = &Coverage{}
	case "Claim":
		r = &Claim{}
	case "ClaimResponse":
		r = &ClaimResponse{}
	case "Encounter":
		r = &Encounter{}
	case "":
		return nil, fmt.Errorf("record is missing resourceType")
	default:
		return nil, fmt.Errorf("unsupported resourceType %q", peek.ResourceType)
	}

	if err := json.Unmarshal(data, r); err != nil {
		return nil, err
	}
	return r, nil
}
