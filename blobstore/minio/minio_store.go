package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/vinujohn/hefty-blob/blobstore"
	s3blob "github.com/vinujohn/hefty-blob/blobstore/s3"
)

// Store implements blobstore.BlobStore for MinIO and S3-compatible storage.
type Store struct {
	client *minio.Client
	bucket string
}

var _ blobstore.BlobStore = (*Store)(nil)

func NewStore(client *minio.Client, bucket string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
	}
}

// New connects to cfg.Endpoint with static credentials. An https endpoint enables TLS.
func New(ctx context.Context, cfg s3blob.Config, policy blobstore.RetryPolicy) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required for the minio driver")
	}

	host, secure, err := parseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	policy = policy.WithDefaults()
	transport, err := minio.DefaultTransport(secure)
	if err != nil {
		return nil, fmt.Errorf("unable to create minio transport. %w", err)
	}
	if policy.Timeout > 0 {
		transport.ResponseHeaderTimeout = policy.Timeout
	}

	lookup := minio.BucketLookupAuto
	if cfg.PathStyle {
		lookup = minio.BucketLookupPath
	}

	client, err := minio.New(host, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       secure,
		Region:       cfg.Region,
		Transport:    transport,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create minio client. %w", err)
	}

	if cfg.CheckBucket && cfg.Bucket != "" {
		exists, err := client.BucketExists(ctx, cfg.Bucket)
		if err != nil {
			return nil, fmt.Errorf("unable to check if bucket exists. %v", err)
		}
		if !exists {
			return nil, fmt.Errorf("bucket %s does not exist", cfg.Bucket)
		}
	}

	return NewStore(client, cfg.Bucket), nil
}

func parseEndpoint(endpoint string) (string, bool, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		// plain host:port
		return endpoint, false, nil
	}
	switch u.Scheme {
	case "http":
		return u.Host, false, nil
	case "https":
		return u.Host, true, nil
	default:
		return "", false, fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}
}

func (s *Store) Scheme() string {
	return s3blob.Scheme
}

func (s *Store) Store(ctx context.Context, key string, data []byte) (string, error) {
	uri := blobstore.FormatURI(s3blob.Scheme, s.bucket, key)

	opts := minio.PutObjectOptions{ContentType: "application/octet-stream"}
	opts.SetMatchETagExcept("*")

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		return "", blobstore.NewStorageError("store", uri, err)
	}

	return uri, nil
}

func (s *Store) Retrieve(ctx context.Context, uri string) ([]byte, error) {
	u, err := blobstore.ParseSchemeURI(s3blob.Scheme, uri)
	if err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, u.Bucket, u.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classify(uri, err)
	}
	defer obj.Close()

	// GetObject is lazy, a missing key surfaces on the first read
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, classify(uri, err)
	}

	return data, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, blobstore.NewStorageError("list", blobstore.FormatURI(s3blob.Scheme, s.bucket, prefix), obj.Err)
		}
		keys = append(keys, obj.Key)
	}

	return keys, nil
}

func (s *Store) Delete(ctx context.Context, keys []string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	objects := make(chan minio.ObjectInfo, len(keys))
	for _, key := range keys {
		objects <- minio.ObjectInfo{Key: key}
	}
	close(objects)

	failed := make(map[string]error)
	for removeErr := range s.client.RemoveObjects(ctx, s.bucket, objects, minio.RemoveObjectsOptions{}) {
		if isNotFound(removeErr.Err) {
			continue
		}
		failed[removeErr.ObjectName] = blobstore.NewStorageError("delete",
			blobstore.FormatURI(s3blob.Scheme, s.bucket, removeErr.ObjectName), removeErr.Err)
	}

	if len(failed) > 0 {
		return len(keys) - len(failed), &blobstore.DeleteError{Failed: failed}
	}
	return len(keys), nil
}

func classify(uri string, err error) error {
	if isNotFound(err) {
		return &blobstore.NotFoundError{URI: uri, Err: err}
	}
	return blobstore.NewStorageError("retrieve", uri, err)
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	errResp := minio.ToErrorResponse(err)
	return errResp.Code == "NoSuchKey" || errResp.Code == "NotFound"
}
