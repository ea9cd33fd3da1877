package hefty

import (
	"context"
	"fmt"

	"github.com/vinujohn/hefty-blob/blobstore"
	"github.com/vinujohn/hefty-blob/blobstore/azure"
	"github.com/vinujohn/hefty-blob/blobstore/gcs"
	"github.com/vinujohn/hefty-blob/blobstore/minio"
	s3blob "github.com/vinujohn/hefty-blob/blobstore/s3"
)

const memoryBucket = "hefty"

// NewBlobStore builds the store cfg.Backend selects. Each call returns an independent client.
func NewBlobStore(ctx context.Context, cfg Config) (BlobStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newBackendStore(ctx, cfg.withDefaults(), cfg.Backend, true)
}

// newBackendStore connects to backend. A store that does not write only needs the settings to reach
// the service.
func newBackendStore(ctx context.Context, cfg Config, backend Backend, write bool) (BlobStore, error) {
	if backend != BackendMemory {
		if err := cfg.validateBackend(backend, write); err != nil {
			return nil, err
		}
	}

	var (
		store BlobStore
		err   error
	)
	switch backend {
	case BackendS3:
		if cfg.S3.Driver == s3blob.DriverMinio {
			store, err = minio.New(ctx, cfg.S3, cfg.Retry)
		} else {
			store, err = s3blob.New(ctx, cfg.S3, cfg.Retry)
		}
	case BackendAzure:
		store, err = azure.New(cfg.Azure, cfg.Retry)
	case BackendGCS:
		store, err = gcs.New(ctx, cfg.GCS, cfg.Retry)
	case BackendMemory:
		store = blobstore.NewMemoryStore(memoryBucket)
	default:
		return nil, &ConfigurationError{Field: "backend", Reason: fmt.Sprintf("unknown backend %q", backend)}
	}
	if err != nil {
		return nil, &ConfigurationError{Field: string(backend), Reason: err.Error()}
	}

	return store, nil
}
