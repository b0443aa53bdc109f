package repository

import (
	"context"
	"io"
)

// ObjectStorage defines the operations needed to mirror HLS artifacts to an
// object store for CDN offload, and to withdraw them when a stream is
// reclaimed. Implementations are provided by the infrastructure layer
// (e.g., MinIO, S3).
type ObjectStorage interface {
	// Upload stores an object under the given key.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
}
