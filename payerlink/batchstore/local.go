package batchstore

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/aurelianware/payerlink/payerlink/utils"
)

// LocalHandler stores streams on the local filesystem. This handler should
// only be used for local dev/testing now.
type LocalHandler struct {
	Logger logrus.FieldLogger
}

func (handler *LocalHandler) WriteStream(_ context.Context, uri string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(uri), 0750); err != nil {
		return errors.Wrapf(err, "could not create directory for %s", uri)
	}

	f, err := os.OpenFile(filepath.Clean(uri), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0640)
	if err != nil {
		return errors.Wrapf(err, "could not create stream file %s", uri)
	}

	if _, err := io.Copy(f, r); err != nil {
		utils.CloseFileAndLogError(f)
		return errors.Wrapf(err, "could not write stream file %s", uri)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "could not close stream file %s", uri)
	}

	handler.Logger.Infof("Wrote stream file %s", uri)
	return nil
}

func (handler *LocalHandler) ReadStream(_ context.Context, uri string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Clean(uri))
	if err != nil {
		return nil, errors.Wrapf(err, "could not read stream file %s", uri)
	}
	return f, nil
}

func (handler *LocalHandler) Delete(_ context.Context, uri string) error {
	if err := os.Remove(uri); err != nil {
		return errors.Wrapf(err, "could not delete stream file %s", uri)
	}
	handler.Logger.Infof("Deleted stream file %s", uri)
	return nil
}
