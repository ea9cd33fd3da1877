package blobstore

import (
	"context"
)

// BlobStore is the capability interface implemented by every backend.
type BlobStore interface {
	// Scheme is the URI scheme of references produced by Store, e.g. "s3".
	Scheme() string

	// Store writes data under key exactly once and returns the reference URI. Either the whole blob
	// is durable and a URI is returned, or an error is returned and no URI exists.
	Store(ctx context.Context, key string, data []byte) (string, error)

	// Retrieve reads the blob a URI produced by Store points at.
	Retrieve(ctx context.Context, uri string) ([]byte, error)

	// List returns every key starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the given keys and returns how many were removed. Keys that do not exist count
	// as removed. Keys that could not be removed are reported through a *DeleteError.
	Delete(ctx context.Context, keys []string) (int, error)
}
