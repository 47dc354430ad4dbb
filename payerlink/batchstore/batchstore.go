// Package batchstore reads and writes batch record streams in the object
// store. Streams are addressed by URI: s3://bucket/key for the S3 handler,
// plain filesystem paths for the local handler.
package batchstore

import (
	"context"
	"io"
)

// Handler moves batch streams in and out of a backing store. Callers own
// closing the reader ReadStream returns.
type Handler interface {
	WriteStream(ctx context.Context, uri string, r io.Reader) error
	ReadStream(ctx context.Context, uri string) (io.ReadCloser, error)
	Delete(ctx context.Context, uri string) error
}
