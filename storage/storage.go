// Package storage holds receipt attachments. Production uses an S3-compatible
// bucket with short-lived signed download URLs; a filesystem store covers
// local development and an in-memory store covers tests.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// SignedURLTTL is how long an issued download URL stays valid.
const SignedURLTTL = time.Hour

// Store is a named-object blob store with overwrite-allowed writes.
type Store interface {
	// Put writes an object, replacing any existing object with the same key.
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	// SignedURL issues a short-lived read URL for an object.
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
}

// Open selects a Store from the environment.
//
//	BLOB_DRIVER: s3|local|memory (default local)
//	BLOB_LOCAL_ROOT: directory root when driver=local (default ./uploads/receipts)
//	(S3 variables documented in s3.go)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("BLOB_DRIVER")
	if driver == "" {
		driver = "local"
	}
	switch driver {
	case "local":
		return NewLocal(os.Getenv("BLOB_LOCAL_ROOT"))
	case "s3":
		return OpenS3FromEnv(ctx)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
