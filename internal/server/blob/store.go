// Package blob abstracts external binary storage for the s3 content backend.
// With the default inline backend nothing in this package is used.
package blob

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store is an object store holding payload and thumbnail blobs addressed by
// opaque keys.
type Store interface {
	// Put writes body under key. Keys are never reused.
	Put(ctx context.Context, key string, body []byte) error

	// Get reads the object stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object stored under key.
	Delete(ctx context.Context, key string) error

	// PresignGet returns a temporary URL from which the object can be
	// downloaded directly.
	PresignGet(ctx context.Context, key string) (string, error)
}

// RandomKey returns a fresh date-prefixed storage key.
func RandomKey() string {
	d := time.Now()
	return fmt.Sprintf("files/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}
