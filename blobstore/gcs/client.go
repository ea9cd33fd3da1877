package gcs

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// Client is the narrow set of object operations the store needs.
type Client interface {
	// UploadNew writes an object and fails if the name is already taken.
	UploadNew(ctx context.Context, bucket, name string, data []byte) error
	Download(ctx context.Context, bucket, name string) (io.ReadCloser, error)
	List(ctx context.Context, bucket, prefix string) ([]string, error)
	Delete(ctx context.Context, bucket, name string) error
}

// sdkClient adapts *storage.Client to Client.
type sdkClient struct {
	client *storage.Client
}

func NewSDKClient(client *storage.Client) Client {
	return &sdkClient{client: client}
}

func (c *sdkClient) UploadNew(ctx context.Context, bucket, name string, data []byte) error {
	w := c.client.Bucket(bucket).Object(name).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = "application/octet-stream"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	// the object is only committed by a successful Close
	return w.Close()
}

func (c *sdkClient) Download(ctx context.Context, bucket, name string) (io.ReadCloser, error) {
	return c.client.Bucket(bucket).Object(name).NewReader(ctx)
}

func (c *sdkClient) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	var names []string

	it := c.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		names = append(names, attrs.Name)
	}

	return names, nil
}

func (c *sdkClient) Delete(ctx context.Context, bucket, name string) error {
	return c.client.Bucket(bucket).Object(name).Delete(ctx)
}
