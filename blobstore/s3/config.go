package s3

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/vinujohn/hefty-blob/blobstore"
)

const (
	DriverAWS   = "aws"
	DriverMinio = "minio"
)

// Config holds the S3 settings. Leave credentials empty to use the SDK's default credential chain.
type Config struct {
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"` // custom endpoint, e.g. localstack
	// PathStyle addresses buckets as endpoint/bucket instead of bucket.endpoint.
	PathStyle bool `yaml:"path_style"`

	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`

	// RoleARN makes the client assume a role through STS.
	RoleARN         string `yaml:"role_arn"`
	RoleSessionName string `yaml:"role_session_name"`
	RoleExternalID  string `yaml:"role_external_id"`

	// Driver selects the client library: "aws" (default) or "minio" for S3 compatible stores.
	Driver string `yaml:"driver"`

	// CheckBucket verifies at construction that the bucket exists and is accessible.
	CheckBucket bool `yaml:"check_bucket"`
}

// Validate reports the first missing or inconsistent setting of a store that writes.
func (c Config) Validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("bucket is required")
	}
	return c.ValidateRead()
}

// ValidateRead checks the settings needed to read references. The bucket comes from each reference.
func (c Config) ValidateRead() error {
	if (c.AccessKey == "") != (c.SecretKey == "") {
		return fmt.Errorf("access key and secret key must be set together")
	}
	if c.RoleARN != "" && c.RoleSessionName == "" {
		return fmt.Errorf("role session name is required when a role arn is set")
	}
	return nil
}

// NewClient builds an S3 client from cfg. Retries follow policy using the SDK's standard retryer
// with an exponential jitter backoff starting from the policy's initial backoff.
func NewClient(ctx context.Context, cfg Config, policy blobstore.RetryPolicy) (*s3.Client, error) {
	policy = policy.WithDefaults()

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRetryer(func() aws.Retryer {
			return retry.NewStandard(func(o *retry.StandardOptions) {
				o.MaxAttempts = policy.MaxAttempts
				o.MaxBackoff = policy.MaxBackoff
				o.Backoff = newBackoff(policy.InitialBackoff, policy.MaxBackoff)
			})
		}),
	}
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if policy.Timeout > 0 {
		loadOpts = append(loadOpts, config.WithHTTPClient(awshttp.NewBuildableClient().WithTimeout(policy.Timeout)))
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	sdkConfig, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load aws configuration. %w", err)
	}

	if cfg.RoleARN != "" && cfg.AccessKey == "" {
		stsClient := sts.NewFromConfig(sdkConfig)
		sdkConfig.Credentials = aws.NewCredentialsCache(stscreds.NewAssumeRoleProvider(stsClient, cfg.RoleARN,
			func(o *stscreds.AssumeRoleOptions) {
				o.RoleSessionName = cfg.RoleSessionName
				if cfg.RoleExternalID != "" {
					o.ExternalID = aws.String(cfg.RoleExternalID)
				}
			}))
	}

	return s3.NewFromConfig(sdkConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	}), nil
}

// backoff doubles the delay on every attempt from initial up to max, then jitters it into [d/2, d].
type backoff struct {
	initial time.Duration
	max     time.Duration
	jitter  func(n int64) int64
}

func newBackoff(initial, maxDelay time.Duration) *backoff {
	return &backoff{initial: initial, max: maxDelay, jitter: rand.Int64N}
}

// BackoffDelay implements retry.BackoffDelayer. attempt starts at 1 for the first retry.
func (b *backoff) BackoffDelay(attempt int, _ error) (time.Duration, error) {
	d := b.initial
	for i := 1; i < attempt && d < b.max; i++ {
		d *= 2
	}
	if d > b.max {
		d = b.max
	}
	if d <= 1 {
		return d, nil
	}
	half := d / 2
	return half + time.Duration(b.jitter(int64(d-half)+1)), nil
}
