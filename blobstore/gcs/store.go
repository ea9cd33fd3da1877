package gcs

import (
	"context"
	"errors"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/vinujohn/hefty-blob/blobstore"
)

const Scheme = "gs"

// Store implements blobstore.BlobStore for Google Cloud Storage.
type Store struct {
	client  Client
	bucket  string
	timeout time.Duration
}

var _ blobstore.BlobStore = (*Store)(nil)

// NewStore wraps client. A positive timeout bounds every call including its retries.
func NewStore(client Client, bucket string, timeout time.Duration) *Store {
	return &Store{
		client:  client,
		bucket:  bucket,
		timeout: timeout,
	}
}

func New(ctx context.Context, cfg Config, policy blobstore.RetryPolicy) (*Store, error) {
	client, err := NewClient(ctx, cfg, policy)
	if err != nil {
		return nil, err
	}

	policy = policy.WithDefaults()
	var timeout time.Duration
	if policy.Timeout > 0 {
		timeout = policy.Timeout * time.Duration(policy.MaxAttempts)
	}

	return NewStore(NewSDKClient(client), cfg.Bucket, timeout), nil
}

func (s *Store) Scheme() string {
	return Scheme
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) Store(ctx context.Context, key string, data []byte) (string, error) {
	uri := blobstore.FormatURI(Scheme, s.bucket, key)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.client.UploadNew(ctx, s.bucket, key, data); err != nil {
		return "", blobstore.NewStorageError("store", uri, err)
	}

	return uri, nil
}

func (s *Store) Retrieve(ctx context.Context, uri string) ([]byte, error) {
	u, err := blobstore.ParseSchemeURI(Scheme, uri)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	r, err := s.client.Download(ctx, u.Bucket, u.Key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, &blobstore.NotFoundError{URI: uri, Err: err}
		}
		return nil, blobstore.NewStorageError("retrieve", uri, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, blobstore.NewStorageError("retrieve", uri, err)
	}

	return data, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	names, err := s.client.List(ctx, s.bucket, prefix)
	if err != nil {
		return nil, blobstore.NewStorageError("list", blobstore.FormatURI(Scheme, s.bucket, prefix), err)
	}
	return names, nil
}

func (s *Store) Delete(ctx context.Context, keys []string) (int, error) {
	failed := make(map[string]error)

	for _, key := range keys {
		err := s.deleteOne(ctx, key)
		if err == nil || errors.Is(err, storage.ErrObjectNotExist) {
			continue
		}
		failed[key] = blobstore.NewStorageError("delete", blobstore.FormatURI(Scheme, s.bucket, key), err)
	}

	if len(failed) > 0 {
		return len(keys) - len(failed), &blobstore.DeleteError{Failed: failed}
	}
	return len(keys), nil
}

func (s *Store) deleteOne(ctx context.Context, key string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.client.Delete(ctx, s.bucket, key)
}
