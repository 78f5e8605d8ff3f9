// Package storage is the object-store boundary for visura PDFs and rendered
// attestazioni.
package storage

import "context"

// BlobStore is the minimal surface the pipeline needs. Buckets are assumed
// to exist; object names are fully qualified by the caller.
type BlobStore interface {
	Exists(ctx context.Context, bucket, object string) (bool, error)
	Upload(ctx context.Context, bucket, object string, data []byte, contentType string) error
	Download(ctx context.Context, bucket, object string) ([]byte, error)
}
