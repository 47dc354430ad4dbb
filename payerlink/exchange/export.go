package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/aurelianware/payerlink/log"
	errs "github.com/aurelianware/payerlink/payerlink/errors"
	"github.com/aurelianware/payerlink/payerlink/fhir"
	"github.com/aurelianware/payerlink/payerlink/metrics"
	"github.com/aurelianware/payerlink/payerlink/models"
)

// ExportRequest names what one counterparty batch should hold.
type ExportRequest struct {
	Counterparty  string           `json:"counterparty"`
	MemberIDs     []string         `json:"memberIDs"`
	ResourceTypes []string         `json:"resourceTypes"`
	Window        models.DateRange `json:"window"`
}

func (r ExportRequest) validate() error {
	switch {
	case r.Counterparty == "":
		return errors.New("export request is missing its counterparty")
	case len(r.MemberIDs) == 0:
		return errors.New("export request names no members")
	case len(r.ResourceTypes) == 0:
		return errors.New("export request names no resource types")
	}
	return nil
}

// Export builds one batch for a counterparty: per resource type, the
// records of every consenting member, streamed to the object store as
// newline-delimited self-describing records. Members without consent are
// skipped and counted in the manifest. The batch is all or nothing: if the
// export aborts, every stream already written is removed and no batch
// exists.
func (c *Coordinator) Export(ctx context.Context, req ExportRequest) (*models.ExportBatch, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	ctx, closeTimer := metrics.NewParent(ctx, "Export")
	defer closeTimer()

	batchID := c.newID()
	batch := &models.ExportBatch{
		ID:           batchID,
		Counterparty: req.Counterparty,
		GeneratedAt:  c.now(),
		Manifest: models.BatchManifest{
			BatchID:      batchID,
			Counterparty: req.Counterparty,
		},
		StreamURLs: make(map[string]string),
	}
	batch.Manifest.GeneratedAt = batch.GeneratedAt

	totalFetches, failedFetches := 0, 0
	var written []string

	for _, resourceType := range req.ResourceTypes {
		closeChild := metrics.NewChild(ctx, fmt.Sprintf("Export-%s", resourceType))
		entry := models.ManifestEntry{ResourceType: resourceType}
		uri := fmt.Sprintf("%s/%s/%s.ndjson", c.cfg.BatchBaseURI, batchID, resourceType)

		// The stream opens lazily on the first record so a fully skipped
		// type never produces an empty object. Once open, records flow to
		// the store as they are produced; the full stream is never held in
		// memory. A partially written stream is on the cleanup list from
		// the moment it opens.
		var sw *streamWriter

		abort := func(cause error) error {
			if sw != nil {
				sw.abort(cause)
			}
			closeChild()
			c.cleanup(written)
			return cause
		}

		for _, memberID := range req.MemberIDs {
			if err := ctx.Err(); err != nil {
				return nil, abort(err)
			}

			authorized, err := c.gate.IsAuthorized(ctx, memberID, req.Counterparty, resourceType)
			if err != nil {
				return nil, abort(err)
			}
			if !authorized {
				entry.ConsentSkipped++
				log.Exchange.WithFields(logrus.Fields{
					"batchID":      batchID,
					"resourceType": resourceType,
				}).Info("Member skipped for lack of consent")
				continue
			}

			totalFetches++
			resources, err := c.fetchWithRetry(ctx, memberID, resourceType, req.Window)
			if err != nil {
				failedFetches++
				log.Exchange.WithFields(logrus.Fields{
					"batchID":      batchID,
					"resourceType": resourceType,
				}).Errorf("Backend fetch failed: %s", err.Error())
				continue
			}

			for _, resource := range resources {
				line, err := json.Marshal(resource)
				if err != nil {
					return nil, abort(errors.Wrap(err, "could not encode record"))
				}
				if sw == nil {
					sw = c.openStream(ctx, uri)
					written = append(written, uri)
				}
				if err := sw.write(line); err != nil {
					return nil, abort(errors.Wrapf(err, "could not write %s stream for batch %s", resourceType, batchID))
				}
				entry.RecordCount++
			}
		}

		if sw != nil {
			if err := sw.close(); err != nil {
				closeChild()
				c.cleanup(written)
				return nil, errors.Wrapf(err, "could not write %s stream for batch %s", resourceType, batchID)
			}
			batch.StreamURLs[resourceType] = uri
		}
		batch.Manifest.Entries = append(batch.Manifest.Entries, entry)
		closeChild()
	}

	if failedFetches > 0 {
		failedPct := float64(failedFetches) / float64(totalFetches) * 100
		if failedPct > c.cfg.ExportFailurePct {
			c.cleanup(written)
			return nil, &errs.ExchangeError{
				Kind:    errs.SourceUnavailable,
				BatchID: batchID,
				Err:     errors.Errorf("%d of %d member fetches failed", failedFetches, totalFetches),
			}
		}
	}

	if err := c.writeManifest(ctx, batch); err != nil {
		c.cleanup(written)
		return nil, err
	}

	log.Exchange.WithFields(logrus.Fields{
		"batchID":      batchID,
		"counterparty": req.Counterparty,
		"streams":      len(batch.StreamURLs),
	}).Info("Export batch complete")
	return batch, nil
}

// streamWriter feeds one record stream to the object store through a pipe.
// Writes block until the store consumes them, so memory use stays bounded
// by one record regardless of the member population.
type streamWriter struct {
	pw   *io.PipeWriter
	done chan error
}

// openStream starts the store write for a stream URI and hands back the
// producing end.
func (c *Coordinator) openStream(ctx context.Context, uri string) *streamWriter {
	pr, pw := io.Pipe()
	sw := &streamWriter{pw: pw, done: make(chan error, 1)}
	go func() {
		err := c.store.WriteStream(ctx, uri, pr)
		// Unblocks the producer when the store gave up mid-stream.
		pr.CloseWithError(err)
		sw.done <- err
	}()
	return sw
}

func (sw *streamWriter) write(line []byte) error {
	if _, err := sw.pw.Write(line); err != nil {
		return err
	}
	_, err := sw.pw.Write([]byte{'\n'})
	return err
}

// close finishes the stream and reports the store's verdict.
func (sw *streamWriter) close() error {
	sw.pw.Close()
	return <-sw.done
}

// abort tears the stream down after a failure elsewhere in the export and
// waits for the store goroutine to finish.
func (sw *streamWriter) abort(cause error) {
	sw.pw.CloseWithError(cause)
	<-sw.done
}

// fetchWithRetry pulls one member's resources, retrying transient backend
// failures with exponential backoff before giving up.
func (c *Coordinator) fetchWithRetry(ctx context.Context, memberID, resourceType string, window models.DateRange) ([]fhir.Resource, error) {
	var resources []fhir.Resource
	op := func() error {
		var err error
		resources, err = c.backend.FetchResources(ctx, memberID, resourceType, window)
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.cfg.FetchRetryMax), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return resources, nil
}

func (c *Coordinator) writeManifest(ctx context.Context, batch *models.ExportBatch) error {
	data, err := json.Marshal(batch.Manifest)
	if err != nil {
		return errors.Wrap(err, "could not encode manifest")
	}
	uri := fmt.Sprintf("%s/%s/manifest.json", c.cfg.BatchBaseURI, batch.ID)
	if err := c.store.WriteStream(ctx, uri, bytes.NewReader(data)); err != nil {
		return errors.Wrapf(err, "could not write manifest for batch %s", batch.ID)
	}
	return nil
}

// cleanup removes streams already written by an aborted export. Delete
// failures are logged, not returned: the abort error is the one the caller
// needs.
func (c *Coordinator) cleanup(uris []string) {
	for _, uri := range uris {
		if err := c.store.Delete(context.Background(), uri); err != nil {
			log.Exchange.Errorf("Could not remove stream %s from aborted export: %s", uri, err.Error())
		}
	}
}
