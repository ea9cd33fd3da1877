package hefty

import (
	"fmt"

	"github.com/vinujohn/hefty-blob/blobstore"
	"github.com/vinujohn/hefty-blob/blobstore/azure"
	"github.com/vinujohn/hefty-blob/blobstore/gcs"
	s3blob "github.com/vinujohn/hefty-blob/blobstore/s3"
)

type Backend string

const (
	BackendS3     Backend = "s3"
	BackendAzure  Backend = "azure"
	BackendGCS    Backend = "gcs"
	BackendMemory Backend = "memory" // in-process, for tests and local development
)

// Config is passed by value to every component and never modified after construction, so pipelines
// with different settings can live in one process.
type Config struct {
	// MaxByteSize is the largest payload sent inline. Zero selects DefaultMaxByteSize.
	MaxByteSize int `yaml:"max_byte_size"`
	// BasePath prefixes every blob key.
	BasePath string  `yaml:"base_path"`
	Backend  Backend `yaml:"backend"`

	S3    s3blob.Config `yaml:"s3"`
	Azure azure.Config  `yaml:"azure"`
	GCS   gcs.Config    `yaml:"gcs"`

	Retry blobstore.RetryPolicy `yaml:"retry"`
}

func DefaultConfig() Config {
	return Config{
		MaxByteSize: DefaultMaxByteSize,
		Backend:     BackendS3,
		Retry:       blobstore.DefaultRetryPolicy(),
	}
}

func (c Config) withDefaults() Config {
	if c.MaxByteSize == 0 {
		c.MaxByteSize = DefaultMaxByteSize
	}
	c.Retry = c.Retry.WithDefaults()
	return c
}

// Validate checks the threshold, the backend selection and the selected backend's settings.
func (c Config) Validate() error {
	if err := c.validateCommon(); err != nil {
		return err
	}

	switch c.Backend {
	case BackendS3, BackendAzure, BackendGCS:
		return c.validateBackend(c.Backend, true)
	case BackendMemory:
		return nil
	case "":
		return &ConfigurationError{Field: "backend", Reason: "is required"}
	default:
		return &ConfigurationError{Field: "backend", Reason: fmt.Sprintf("unknown backend %q", c.Backend)}
	}
}

func (c Config) validateCommon() error {
	if c.MaxByteSize < 0 {
		return &ConfigurationError{Field: "max_byte_size", Reason: fmt.Sprintf("must not be negative, got %d", c.MaxByteSize)}
	}
	if c.Retry.MaxAttempts < 0 {
		return &ConfigurationError{Field: "retry.max_attempts", Reason: "must not be negative"}
	}
	return nil
}

// validateRead checks what a Deserializer needs. Buckets and containers come from the references it
// reads, so none has to be configured.
func (c Config) validateRead() error {
	if err := c.validateCommon(); err != nil {
		return err
	}

	switch c.Backend {
	case BackendS3, BackendAzure, BackendGCS:
		return c.validateBackend(c.Backend, false)
	case BackendMemory, "":
		return nil
	default:
		return &ConfigurationError{Field: "backend", Reason: fmt.Sprintf("unknown backend %q", c.Backend)}
	}
}

// validateBackend checks the settings of backend b. Only a store that writes needs a bucket.
func (c Config) validateBackend(b Backend, write bool) error {
	var err error
	switch b {
	case BackendS3:
		if write {
			err = c.S3.Validate()
		} else {
			err = c.S3.ValidateRead()
		}
		if err == nil && c.S3.Driver != "" && c.S3.Driver != s3blob.DriverAWS && c.S3.Driver != s3blob.DriverMinio {
			err = fmt.Errorf("unknown driver %q", c.S3.Driver)
		}
	case BackendAzure:
		if write {
			err = c.Azure.Validate()
		} else {
			err = c.Azure.ValidateRead()
		}
	case BackendGCS:
		if write {
			err = c.GCS.Validate()
		} else {
			err = c.GCS.ValidateRead()
		}
	}
	if err != nil {
		return &ConfigurationError{Field: string(b), Reason: err.Error()}
	}
	return nil
}

// backendForScheme maps a reference scheme back to the backend able to read it.
func backendForScheme(scheme string) (Backend, bool) {
	switch scheme {
	case s3blob.Scheme:
		return BackendS3, true
	case azure.Scheme:
		return BackendAzure, true
	case gcs.Scheme:
		return BackendGCS, true
	case blobstore.MemoryScheme:
		return BackendMemory, true
	}
	return "", false
}
