package batchstore

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalHandlerRoundTrip(t *testing.T) {
	handler := &LocalHandler{Logger: logrus.New()}
	ctx := context.Background()
	uri := filepath.Join(t.TempDir(), "batches", "batch-1", "Patient.ndjson")

	content := `{"resourceType":"Patient","id":"MBR123"}` + "\n"
	require.NoError(t, handler.WriteStream(ctx, uri, strings.NewReader(content)))

	r, err := handler.ReadStream(ctx, uri)
	require.NoError(t, err)
	defer r.Close()
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))

	require.NoError(t, handler.Delete(ctx, uri))
	_, err = handler.ReadStream(ctx, uri)
	assert.Error(t, err)
}

func TestLocalHandlerOverwrites(t *testing.T) {
	handler := &LocalHandler{Logger: logrus.New()}
	ctx := context.Background()
	uri := filepath.Join(t.TempDir(), "stream.ndjson")

	require.NoError(t, handler.WriteStream(ctx, uri, strings.NewReader("first longer contents\n")))
	require.NoError(t, handler.WriteStream(ctx, uri, strings.NewReader("second\n")))

	r, err := handler.ReadStream(ctx, uri)
	require.NoError(t, err)
	defer r.Close()
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(got))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}

func TestLocalHandlerWriteFailureClosesFile(t *testing.T) {
	handler := &LocalHandler{Logger: logrus.New()}
	ctx := context.Background()
	uri := filepath.Join(t.TempDir(), "stream.ndjson")

	err := handler.WriteStream(ctx, uri, failingReader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not write stream file")

	// The handle was released despite the failed copy, so the partial
	// file can be overwritten cleanly.
	require.NoError(t, handler.WriteStream(ctx, uri, strings.NewReader("retry\n")))
}

func TestParseS3URI(t *testing.T) {
	bucket, key, err := parseS3URI("s3://exchange-batches/batch-1/Patient.ndjson")
	require.NoError(t, err)
	assert.Equal(t, "exchange-batches", bucket)
	assert.Equal(t, "batch-1/Patient.ndjson", key)

	_, _, err = parseS3URI("/tmp/batch-1/Patient.ndjson")
	assert.Error(t, err)
	_, _, err = parseS3URI("s3://bucket-only")
	assert.Error(t, err)
}
