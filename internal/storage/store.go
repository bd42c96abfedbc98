// Package storage abstracts the object store holding uploaded and generated
// images. Two backends exist: S3-compatible object storage with presigned
// URLs for production, and a local filesystem store with HMAC-signed URLs for
// development and tests.
package storage

import (
	"context"
	"time"
)

// Store is the contract consumed by handlers and the generation worker.
type Store interface {
	// Upload persists data under key with the given content type.
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	// Download returns the object bytes and stored content type.
	Download(ctx context.Context, key string) ([]byte, string, error)
	// PresignGet returns a time-limited URL granting read access to key.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
