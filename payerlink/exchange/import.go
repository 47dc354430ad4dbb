package exchange

import (
	"bufio"
	"context"
	"fmt"
	"sort"

	"github.com/dimchansky/utfbom"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/aurelianware/payerlink/log"
	"github.com/aurelianware/payerlink/payerlink/constants"
	errs "github.com/aurelianware/payerlink/payerlink/errors"
	"github.com/aurelianware/payerlink/payerlink/fhir"
	"github.com/aurelianware/payerlink/payerlink/mapper"
	"github.com/aurelianware/payerlink/payerlink/metrics"
	"github.com/aurelianware/payerlink/payerlink/models"
)

// Import ingests a counterparty batch stream by stream. Malformed records
// never abort the operation; they are collected as validation errors in the
// per-type outcome and the stream continues. Only an unreadable stream or a
// cancelled context aborts. Duplicate suppression is identity matching for
// patients and natural-key lookup for everything else.
func (c *Coordinator) Import(ctx context.Context, batch *models.ExportBatch) (*models.ImportResult, error) {
	if batch == nil || batch.ID == "" {
		return nil, errors.New("import requires a batch")
	}

	ctx, closeTimer := metrics.NewParent(ctx, "Import")
	defer closeTimer()

	result := &models.ImportResult{BatchID: batch.ID, Status: constants.ImportInprog}

	resourceTypes := make([]string, 0, len(batch.StreamURLs))
	for resourceType := range batch.StreamURLs {
		resourceTypes = append(resourceTypes, resourceType)
	}
	sort.Strings(resourceTypes)

	for _, resourceType := range resourceTypes {
		if err := c.importStream(ctx, batch, resourceType, result); err != nil {
			result.Status = constants.ImportFail
			return result, err
		}
	}

	result.Status = constants.ImportComplete
	log.Exchange.WithFields(logrus.Fields{
		"batchID": batch.ID,
		"streams": len(resourceTypes),
	}).Info("Import complete")
	return result, nil
}

func (c *Coordinator) importStream(ctx context.Context, batch *models.ExportBatch, resourceType string, result *models.ImportResult) error {
	closeChild := metrics.NewChild(ctx, fmt.Sprintf("Import-%s", resourceType))
	defer closeChild()

	uri := batch.StreamURLs[resourceType]
	rc, err := c.store.ReadStream(ctx, uri)
	if err != nil {
		return &errs.ExchangeError{Kind: errs.BatchUnreadable, BatchID: batch.ID, Err: err}
	}
	defer rc.Close()

	candidates, err := c.repo.PatientCandidates(ctx)
	if err != nil {
		return errors.Wrap(err, "could not load patient candidates")
	}

	// The stream may arrive with a byte order mark from a counterparty's
	// encoder; records past the first line are unaffected.
	sc := bufio.NewScanner(utfbom.SkipOnly(rc))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	position := 0
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		position++

		resource, err := fhir.UnmarshalResource(line)
		if err != nil {
			outcome := result.Outcome(resourceType)
			outcome.Errors = append(outcome.Errors, &errs.ValidationError{
				Position: position, ResourceType: resourceType, Msg: err.Error()})
			continue
		}

		outcome := result.Outcome(resource.GetResourceType())
		if patient, ok := resource.(*fhir.Patient); ok {
			err = c.importPatient(ctx, patient, line, position, outcome, &candidates)
		} else {
			err = c.importKeyed(ctx, resource, line, position, outcome)
		}
		if err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return &errs.ExchangeError{Kind: errs.BatchUnreadable, BatchID: batch.ID, Err: err}
	}

	if entry := batch.Manifest.Entry(resourceType); entry != nil && position != entry.RecordCount {
		log.Exchange.WithFields(logrus.Fields{
			"batchID":      batch.ID,
			"resourceType": resourceType,
			"manifest":     entry.RecordCount,
			"stream":       position,
		}).Warn("Stream record count disagrees with the batch manifest")
	}
	return nil
}

// importPatient stores a patient unless identity matching finds the member
// already on file. Newly stored patients join the candidate set so later
// records in the same stream deduplicate against them too.
func (c *Coordinator) importPatient(ctx context.Context, patient *fhir.Patient, line []byte, position int, outcome *models.TypeOutcome, candidates *[]models.MatchCandidate) error {
	identity := mapper.IdentityFromPatient(patient)
	if !identity.Matchable() {
		outcome.Errors = append(outcome.Errors, &errs.ValidationError{
			Position:     position,
			ResourceType: constants.ResourcePatient,
			Msg:          "patient identity is not matchable",
		})
		return nil
	}

	match, err := c.matcher.Match(identity, *candidates)
	if err != nil {
		return errors.Wrap(err, "could not match patient identity")
	}
	if match.Decision == models.Matched {
		outcome.DuplicatesSkipped++
		log.Exchange.WithFields(logrus.Fields{
			"candidateID": match.CandidateID,
			"confidence":  match.Confidence,
			"matchedOn":   match.MatchedOn,
		}).Info("Patient record matched an existing member")
		return nil
	}

	key := patient.ID
	if key == "" {
		key = identity.MemberID
	}
	if err := c.repo.SaveResource(ctx, constants.ResourcePatient, key, identity, line); err != nil {
		return errors.Wrap(err, "could not store patient record")
	}
	outcome.Count++
	*candidates = append(*candidates, models.MatchCandidate{
		ID:        key,
		Identity:  identity,
		CreatedAt: c.now(),
	})
	return nil
}

// importKeyed stores a non-demographic resource unless its natural key is
// already on file.
func (c *Coordinator) importKeyed(ctx context.Context, resource fhir.Resource, line []byte, position int, outcome *models.TypeOutcome) error {
	key := naturalKey(resource)
	if key == "" {
		outcome.Errors = append(outcome.Errors, &errs.ValidationError{
			Position:     position,
			ResourceType: resource.GetResourceType(),
			Msg:          "record carries no usable identifier",
		})
		return nil
	}

	exists, err := c.repo.HasResource(ctx, resource.GetResourceType(), key)
	if err != nil {
		return errors.Wrap(err, "could not check for existing record")
	}
	if exists {
		outcome.DuplicatesSkipped++
		return nil
	}

	if err := c.repo.SaveResource(ctx, resource.GetResourceType(), key, models.DemographicIdentity{}, line); err != nil {
		return errors.Wrapf(err, "could not store %s record", resource.GetResourceType())
	}
	outcome.Count++
	return nil
}

// naturalKey derives the duplicate-detection key for a non-demographic
// resource: the patient reference plus the business identifier when
// present. A claim with no identifier at all still gets a composite key
// from its service date, provider, and billed amount.
func naturalKey(resource fhir.Resource) string {
	switch r := resource.(type) {
	case *fhir.Claim:
		for _, system := range []string{constants.SystemClaimNumber, constants.SystemTraceNumber} {
			if v := identifierValue(r.Identifier, system); v != "" {
				return scopedKey(r.Patient, v)
			}
		}
		if r.ID != "" {
			return scopedKey(r.Patient, r.ID)
		}
		return scopedKey(r.Patient, claimCompositeKey(r))
	case *fhir.ClaimResponse:
		for _, system := range []string{constants.SystemCertification, constants.SystemTraceNumber} {
			if v := identifierValue(r.Identifier, system); v != "" {
				return scopedKey(r.Patient, v)
			}
		}
		return scopedKey(r.Patient, r.ID)
	case *fhir.Coverage:
		if len(r.Identifier) > 0 && r.Identifier[0].Value != "" {
			return r.Identifier[0].Value
		}
		return r.ID
	case *fhir.Encounter:
		if len(r.Identifier) > 0 && r.Identifier[0].Value != "" {
			return scopedKey(r.Subject, r.Identifier[0].Value)
		}
		return scopedKey(r.Subject, r.ID)
	default:
		return resource.GetID()
	}
}

// scopedKey prefixes a key with its patient reference so identical business
// identifiers issued for different members never collide. An empty key
// stays empty regardless of scope.
func scopedKey(patient *fhir.Reference, key string) string {
	if key == "" {
		return ""
	}
	if patient == nil || patient.Reference == "" {
		return key
	}
	return patient.Reference + "|" + key
}

// claimCompositeKey is the fallback for claims transmitted with no claim
// number: service date, provider, and billed amount together. All three
// absent means no usable key.
func claimCompositeKey(c *fhir.Claim) string {
	var serviced string
	if len(c.Item) > 0 {
		serviced = c.Item[0].ServicedDate
		if serviced == "" && c.Item[0].ServicedPeriod != nil {
			serviced = c.Item[0].ServicedPeriod.Start
		}
	}
	if serviced == "" && c.BillablePeriod != nil {
		serviced = c.BillablePeriod.Start
	}

	var provider string
	if c.Provider != nil {
		provider = c.Provider.Reference
		if provider == "" {
			provider = c.Provider.Display
		}
	}

	var amount string
	if c.Total != nil {
		amount = fmt.Sprintf("%.2f", c.Total.Value)
	}

	if serviced == "" && provider == "" && amount == "" {
		return ""
	}
	return serviced + "|" + provider + "|" + amount
}

func identifierValue(identifiers []fhir.Identifier, system string) string {
	for _, ident := range identifiers {
		if ident.System == system {
			return ident.Value
		}
	}
	return ""
}
