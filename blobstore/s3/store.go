package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3manager "github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/vinujohn/hefty-blob/blobstore"
)

const (
	Scheme = "s3"

	maxDeleteBatch = 1000 // DeleteObjects limit
)

// Client is the subset of *s3.Client the store uses.
type Client interface {
	s3manager.UploadAPIClient
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Store implements blobstore.BlobStore for Amazon S3.
type Store struct {
	client   Client
	bucket   string
	uploader *s3manager.Uploader
}

var _ blobstore.BlobStore = (*Store)(nil)

// NewStore creates a store writing to bucket. The client should be able to read and write the bucket.
func NewStore(client Client, bucket string) *Store {
	return &Store{
		client:   client,
		bucket:   bucket,
		uploader: s3manager.NewUploader(client),
	}
}

// New builds a client from cfg and wraps it in a store. With cfg.CheckBucket set the bucket must
// exist and be accessible.
func New(ctx context.Context, cfg Config, policy blobstore.RetryPolicy) (*Store, error) {
	client, err := NewClient(ctx, cfg, policy)
	if err != nil {
		return nil, err
	}

	store := NewStore(client, cfg.Bucket)
	if cfg.CheckBucket && cfg.Bucket != "" {
		if ok, err := bucketExists(ctx, client, cfg.Bucket); !ok {
			if err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("bucket %s does not exist or is not accessible", cfg.Bucket)
		}
	}

	return store, nil
}

func (s *Store) Scheme() string {
	return Scheme
}

func (s *Store) Store(ctx context.Context, key string, data []byte) (string, error) {
	uri := blobstore.FormatURI(Scheme, s.bucket, key)

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:            aws.String(s.bucket),
		Key:               aws.String(key),
		Body:              bytes.NewReader(data),
		ChecksumAlgorithm: types.ChecksumAlgorithmCrc32,
		IfNoneMatch:       aws.String("*"),
	})
	if err != nil {
		return "", blobstore.NewStorageError("store", uri, err)
	}

	return uri, nil
}

// Retrieve reads from the bucket named in the uri, which need not be the store's own bucket.
func (s *Store) Retrieve(ctx context.Context, uri string) ([]byte, error) {
	u, err := blobstore.ParseSchemeURI(Scheme, uri)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.Bucket),
		Key:    aws.String(u.Key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, &blobstore.NotFoundError{URI: uri, Err: err}
		}
		return nil, blobstore.NewStorageError("retrieve", uri, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, blobstore.NewStorageError("retrieve", uri, err)
	}

	return data, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, blobstore.NewStorageError("list", blobstore.FormatURI(Scheme, s.bucket, prefix), err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}

	return keys, nil
}

func (s *Store) Delete(ctx context.Context, keys []string) (int, error) {
	deleted := 0
	failed := make(map[string]error)

	for _, batch := range blobstore.Chunk(keys, maxDeleteBatch) {
		objects := make([]types.ObjectIdentifier, 0, len(batch))
		for _, key := range batch {
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
		}

		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{
				Objects: objects,
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			for _, key := range batch {
				failed[key] = blobstore.NewStorageError("delete", blobstore.FormatURI(Scheme, s.bucket, key), err)
			}
			continue
		}

		batchFailures := 0
		for _, e := range out.Errors {
			// an already deleted key is a success
			if aws.ToString(e.Code) == "NoSuchKey" {
				continue
			}
			key := aws.ToString(e.Key)
			failed[key] = &blobstore.StorageError{
				Op:       "delete",
				Location: blobstore.FormatURI(Scheme, s.bucket, key),
				Err:      fmt.Errorf("%s: %s", aws.ToString(e.Code), aws.ToString(e.Message)),
			}
			batchFailures++
		}
		deleted += len(batch) - batchFailures
	}

	if len(failed) > 0 {
		return deleted, &blobstore.DeleteError{Failed: failed}
	}
	return deleted, nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	var apiError smithy.APIError
	if errors.As(err, &apiError) {
		switch apiError.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
