package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo describes a stored object without opening it.
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
}

// ObjectStore is the boundary onto the backing object storage. The local
// filesystem implementation serves direct byte-range streaming; the minio
// implementation additionally issues presigned retrieval URLs.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	// Get opens the object. When length < 0 the read extends to the end of
	// the object starting at offset.
	Get(ctx context.Context, key string, offset, length int64) (io.ReadCloser, error)
	Stat(ctx context.Context, key string) (*ObjectInfo, error)
	Remove(ctx context.Context, key string) error
	// SignedURL returns a time-bound retrieval reference. Callers must
	// request a fresh one per logical fetch and never persist the result.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
