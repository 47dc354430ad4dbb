// Package worker holds the entry points a bus-triggered worker process
// invokes. The message bus itself lives outside this module; jobs arrive as
// the JSON argument structs defined here.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pborman/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/aurelianware/payerlink/log"
	"github.com/aurelianware/payerlink/payerlink/batchstore"
	"github.com/aurelianware/payerlink/payerlink/exchange"
	"github.com/aurelianware/payerlink/payerlink/metrics"
	"github.com/aurelianware/payerlink/payerlink/models"
)

// ExportJobArgs is the serialized payload of one export job.
type ExportJobArgs struct {
	TransactionID string
	Counterparty  string
	MemberIDs     []string
	ResourceTypes []string
	Window        struct {
		LowerBound time.Time
		UpperBound time.Time
	}
}

// ImportJobArgs is the serialized payload of one import job. The manifest
// URL is the batch's sole address: stream URLs are derived from the layout
// contract, one <ResourceType>.ndjson per manifest entry beside it.
type ImportJobArgs struct {
	TransactionID string
	ManifestURL   string
}

type Worker interface {
	ExecuteExport(ctx context.Context, args ExportJobArgs) (*models.ExportBatch, error)
	ExecuteImport(ctx context.Context, args ImportJobArgs) (*models.ImportResult, error)
}

type worker struct {
	coordinator *exchange.Coordinator
	store       batchstore.Handler
}

func NewWorker(coordinator *exchange.Coordinator, store batchstore.Handler) Worker {
	return &worker{coordinator: coordinator, store: store}
}

func (w *worker) ExecuteExport(ctx context.Context, args ExportJobArgs) (*models.ExportBatch, error) {
	if err := validateExportArgs(args); err != nil {
		return nil, err
	}

	t := metrics.GetTimer()
	defer t.Close()
	ctx = metrics.NewContext(ctx, t)
	ctx, closeTimer := metrics.NewParent(ctx, "Worker/ExecuteExport")
	defer closeTimer()

	logger := log.Worker.WithFields(logrus.Fields{
		"transactionID": transactionID(args.TransactionID),
		"counterparty":  args.Counterparty,
		"members":       len(args.MemberIDs),
	})
	logger.Info("Export job started")

	batch, err := w.coordinator.Export(ctx, exchange.ExportRequest{
		Counterparty:  args.Counterparty,
		MemberIDs:     args.MemberIDs,
		ResourceTypes: args.ResourceTypes,
		Window: models.DateRange{
			Start: args.Window.LowerBound,
			End:   args.Window.UpperBound,
		},
	})
	if err != nil {
		logger.Error(errors.Wrap(err, "export job failed"))
		return nil, err
	}

	logger.WithField("batchID", batch.ID).Info("Export job complete")
	return batch, nil
}

func (w *worker) ExecuteImport(ctx context.Context, args ImportJobArgs) (*models.ImportResult, error) {
	if err := validateImportArgs(args); err != nil {
		return nil, err
	}

	t := metrics.GetTimer()
	defer t.Close()
	ctx = metrics.NewContext(ctx, t)
	ctx, closeTimer := metrics.NewParent(ctx, "Worker/ExecuteImport")
	defer closeTimer()

	logger := log.Worker.WithFields(logrus.Fields{
		"transactionID": transactionID(args.TransactionID),
		"manifestURL":   args.ManifestURL,
	})
	logger.Info("Import job started")

	batch, err := w.loadBatch(ctx, args.ManifestURL)
	if err != nil {
		logger.Error(err)
		return nil, err
	}

	result, err := w.coordinator.Import(ctx, batch)
	if err != nil {
		logger.Error(errors.Wrap(err, "import job failed"))
		return result, err
	}

	logger.WithField("batchID", batch.ID).Info("Import job complete")
	return result, nil
}

// loadBatch rebuilds the batch from its persisted manifest. Streams with no
// records were never written, so only entries with a positive count get a
// stream URL.
func (w *worker) loadBatch(ctx context.Context, manifestURL string) (*models.ExportBatch, error) {
	r, err := w.store.ReadStream(ctx, manifestURL)
	if err != nil {
		return nil, errors.Wrap(err, "could not read batch manifest")
	}
	defer r.Close()

	var manifest models.BatchManifest
	if err := json.NewDecoder(r).Decode(&manifest); err != nil {
		return nil, errors.Wrap(err, "could not decode batch manifest")
	}
	if manifest.BatchID == "" {
		return nil, errors.New("batch manifest has no batch ID")
	}

	// path.Dir would collapse the double slash in s3:// URIs.
	slash := strings.LastIndex(manifestURL, "/")
	if slash < 0 {
		return nil, errors.Errorf("malformed manifest URL %s", manifestURL)
	}
	base := manifestURL[:slash]
	streams := make(map[string]string)
	for _, entry := range manifest.Entries {
		if entry.RecordCount > 0 {
			streams[entry.ResourceType] = fmt.Sprintf("%s/%s.ndjson", base, entry.ResourceType)
		}
	}

	return &models.ExportBatch{
		ID:           manifest.BatchID,
		Counterparty: manifest.Counterparty,
		GeneratedAt:  manifest.GeneratedAt,
		Manifest:     manifest,
		StreamURLs:   streams,
	}, nil
}

func transactionID(id string) string {
	if id == "" {
		return uuid.NewRandom().String()
	}
	return id
}

func validateExportArgs(args ExportJobArgs) error {
	switch {
	case args.Counterparty == "":
		return ErrNoCounterparty
	case len(args.MemberIDs) == 0:
		return ErrNoMembers
	case len(args.ResourceTypes) == 0:
		return ErrNoResourceTypes
	}
	return nil
}

func validateImportArgs(args ImportJobArgs) error {
	if strings.TrimSpace(args.ManifestURL) == "" {
		return ErrNoManifestURL
	}
	return nil
}

type JobError struct {
	ErrorString string
}

func (je JobError) Error() string {
	return je.ErrorString
}

var (
	ErrNoCounterparty  = JobError{"empty Counterparty: Must be set"}
	ErrNoMembers       = JobError{"export job names no members"}
	ErrNoResourceTypes = JobError{"export job names no resource types"}
	ErrNoManifestURL   = JobError{"empty ManifestURL: Must be set"}
)
