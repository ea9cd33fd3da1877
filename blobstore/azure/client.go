package azure

import (
	"context"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

// Client is the narrow set of blob operations the store needs.
type Client interface {
	// UploadNew writes a blob and fails if the name is already taken.
	UploadNew(ctx context.Context, container, name string, data []byte) error
	Download(ctx context.Context, container, name string) (io.ReadCloser, error)
	List(ctx context.Context, container, prefix string) ([]string, error)
	Delete(ctx context.Context, container, name string) error
}

// sdkClient adapts *azblob.Client to Client.
type sdkClient struct {
	client *azblob.Client
}

func NewSDKClient(client *azblob.Client) Client {
	return &sdkClient{client: client}
}

func (c *sdkClient) UploadNew(ctx context.Context, container, name string, data []byte) error {
	_, err := c.client.UploadBuffer(ctx, container, name, data, &azblob.UploadBufferOptions{
		AccessConditions: &azblob.AccessConditions{
			ModifiedAccessConditions: &blob.ModifiedAccessConditions{
				IfNoneMatch: to.Ptr(azcore.ETagAny),
			},
		},
	})
	return err
}

func (c *sdkClient) Download(ctx context.Context, container, name string) (io.ReadCloser, error) {
	resp, err := c.client.DownloadStream(ctx, container, name, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *sdkClient) List(ctx context.Context, container, prefix string) ([]string, error) {
	var names []string

	pager := c.client.NewListBlobsFlatPager(container, &azblob.ListBlobsFlatOptions{
		Prefix: to.Ptr(prefix),
	})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		if page.Segment == nil {
			continue
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				names = append(names, *item.Name)
			}
		}
	}

	return names, nil
}

func (c *sdkClient) Delete(ctx context.Context, container, name string) error {
	_, err := c.client.DeleteBlob(ctx, container, name, nil)
	return err
}
