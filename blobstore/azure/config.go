package azure

import (
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/vinujohn/hefty-blob/blobstore"
)

type Config struct {
	Container string `yaml:"container"`
	// AccountURL is the blob service endpoint, e.g. https://account.blob.core.windows.net/.
	AccountURL       string `yaml:"account_url"`
	ConnectionString string `yaml:"connection_string"`
}

func (c Config) Validate() error {
	if c.Container == "" {
		return fmt.Errorf("container is required")
	}
	return c.ValidateRead()
}

// ValidateRead checks the settings needed to read references. The container comes from each
// reference, the account does not.
func (c Config) ValidateRead() error {
	if c.AccountURL == "" && c.ConnectionString == "" {
		return fmt.Errorf("either account url or connection string is required")
	}
	return nil
}

// NewClient builds an azblob client. The retry policy maps onto the pipeline's exponential retry.
func NewClient(cfg Config, policy blobstore.RetryPolicy) (*azblob.Client, error) {
	opts := &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: retryOptions(policy),
		},
	}

	if cfg.ConnectionString != "" {
		client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, opts)
		if err != nil {
			return nil, fmt.Errorf("unable to create azure client from connection string. %w", err)
		}
		return client, nil
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve azure credentials. %w", err)
	}
	client, err := azblob.NewClient(cfg.AccountURL, cred, opts)
	if err != nil {
		return nil, fmt.Errorf("unable to create azure client. %w", err)
	}
	return client, nil
}

func retryOptions(p blobstore.RetryPolicy) policy.RetryOptions {
	p = p.WithDefaults()
	opts := policy.RetryOptions{
		// azcore counts retries, not attempts
		MaxRetries:    int32(p.MaxAttempts - 1),
		RetryDelay:    p.InitialBackoff,
		MaxRetryDelay: p.MaxBackoff,
	}
	if opts.MaxRetries == 0 {
		// zero means the sdk default
		opts.MaxRetries = -1
	}
	if p.Timeout > 0 {
		opts.TryTimeout = p.Timeout
	}
	return opts
}
