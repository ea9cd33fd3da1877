package gcs

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/googleapis/gax-go/v2"
	"github.com/vinujohn/hefty-blob/blobstore"
	"google.golang.org/api/option"
)

type Config struct {
	Bucket string `yaml:"bucket"`
	// Endpoint overrides the storage API endpoint, e.g. a fake-gcs-server emulator.
	Endpoint        string `yaml:"endpoint"`
	CredentialsFile string `yaml:"credentials_file"`
	// WithoutAuthentication disables credentials, for emulators only.
	WithoutAuthentication bool `yaml:"without_authentication"`
}

func (c Config) Validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("bucket is required")
	}
	return c.ValidateRead()
}

// ValidateRead checks the settings needed to read references. The bucket comes from each reference.
func (c Config) ValidateRead() error {
	if c.CredentialsFile != "" && c.WithoutAuthentication {
		return fmt.Errorf("credentials file cannot be combined with without_authentication")
	}
	return nil
}

// NewClient builds a storage client. Every write carries a DoesNotExist precondition, so all
// operations may be retried.
func NewClient(ctx context.Context, cfg Config, policy blobstore.RetryPolicy) (*storage.Client, error) {
	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.WithoutAuthentication {
		opts = append(opts, option.WithoutAuthentication())
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create gcs client. %w", err)
	}

	client.SetRetry(retryOptions(policy)...)
	return client, nil
}

func retryOptions(p blobstore.RetryPolicy) []storage.RetryOption {
	p = p.WithDefaults()
	return []storage.RetryOption{
		storage.WithBackoff(gax.Backoff{
			Initial:    p.InitialBackoff,
			Max:        p.MaxBackoff,
			Multiplier: 2,
		}),
		storage.WithMaxAttempts(p.MaxAttempts),
		storage.WithPolicy(storage.RetryAlways),
	}
}
