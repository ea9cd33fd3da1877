package azure

import (
	"context"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/vinujohn/hefty-blob/blobstore"
)

const Scheme = "abs"

// Store implements blobstore.BlobStore for Azure Blob Storage.
type Store struct {
	client    Client
	container string
}

var _ blobstore.BlobStore = (*Store)(nil)

func NewStore(client Client, container string) *Store {
	return &Store{
		client:    client,
		container: container,
	}
}

func New(cfg Config, policy blobstore.RetryPolicy) (*Store, error) {
	client, err := NewClient(cfg, policy)
	if err != nil {
		return nil, err
	}
	return NewStore(NewSDKClient(client), cfg.Container), nil
}

func (s *Store) Scheme() string {
	return Scheme
}

func (s *Store) Store(ctx context.Context, key string, data []byte) (string, error) {
	uri := blobstore.FormatURI(Scheme, s.container, key)

	if err := s.client.UploadNew(ctx, s.container, key, data); err != nil {
		return "", blobstore.NewStorageError("store", uri, err)
	}

	return uri, nil
}

func (s *Store) Retrieve(ctx context.Context, uri string) ([]byte, error) {
	u, err := blobstore.ParseSchemeURI(Scheme, uri)
	if err != nil {
		return nil, err
	}

	body, err := s.client.Download(ctx, u.Bucket, u.Key)
	if err != nil {
		if isNotFound(err) {
			return nil, &blobstore.NotFoundError{URI: uri, Err: err}
		}
		return nil, blobstore.NewStorageError("retrieve", uri, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, blobstore.NewStorageError("retrieve", uri, err)
	}

	return data, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	names, err := s.client.List(ctx, s.container, prefix)
	if err != nil {
		return nil, blobstore.NewStorageError("list", blobstore.FormatURI(Scheme, s.container, prefix), err)
	}
	return names, nil
}

// Delete removes blobs one at a time.
func (s *Store) Delete(ctx context.Context, keys []string) (int, error) {
	failed := make(map[string]error)

	for _, key := range keys {
		err := s.client.Delete(ctx, s.container, key)
		if err == nil || isNotFound(err) {
			continue
		}
		failed[key] = blobstore.NewStorageError("delete", blobstore.FormatURI(Scheme, s.container, key), err)
	}

	if len(failed) > 0 {
		return len(keys) - len(failed), &blobstore.DeleteError{Failed: failed}
	}
	return len(keys), nil
}

func isNotFound(err error) bool {
	return bloberror.HasCode(err, bloberror.BlobNotFound)
}
